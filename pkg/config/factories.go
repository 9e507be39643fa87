package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/mossrise/packmule/pkg/asset"
	assetS3 "github.com/mossrise/packmule/pkg/asset/s3"
	"github.com/mossrise/packmule/pkg/metrics"
	"github.com/mossrise/packmule/pkg/store/local"
)

// CreateStore builds a ready-to-Prepare local store from configuration,
// including the pipeline tuning and optional metrics.
func CreateStore(cfg *Config) *local.Store {
	var pipelineMetrics metrics.PipelineMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		pipelineMetrics = metrics.NewPipelineMetrics()
	}

	return local.New(cfg.Store.BasePath, local.Options{
		AssetsPath: cfg.Store.AssetsPath,
		Pipeline: asset.PipelineConfig{
			Parallelism: cfg.Pipeline.Parallelism,
			CarefulDisk: cfg.Pipeline.CarefulDisk,
		},
		LockTimeout: cfg.Store.LockTimeout,
		Metrics:     pipelineMetrics,
	})
}

// CreateAssetSource builds the configured asset source.
//
// Supported types:
//   - "s3": pkg/asset/s3 over Amazon S3 or compatible storage
//   - "none": no source; sessions can only verify already-cached assets
//
// For "none" the returned source is nil.
func CreateAssetSource(ctx context.Context, cfg *SourceConfig) (asset.Source, error) {
	switch cfg.Type {
	case "s3":
		return createS3AssetSource(ctx, cfg.S3)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown asset source type: %q", cfg.Type)
	}
}

// createS3AssetSource decodes the S3 options and builds the client and
// source.
func createS3AssetSource(ctx context.Context, options map[string]any) (asset.Source, error) {
	type S3SourceConfig struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		ForcePathStyle  bool   `mapstructure:"force_path_style"`
	}

	var sourceCfg S3SourceConfig
	if err := mapstructure.Decode(options, &sourceCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 source config: %w", err)
	}

	if sourceCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 asset source: bucket is required")
	}
	if sourceCfg.Region == "" {
		return nil, fmt.Errorf("S3 asset source: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(sourceCfg.Region))

	// Static credentials when provided, default credential chain otherwise.
	if sourceCfg.AccessKeyID != "" && sourceCfg.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				sourceCfg.AccessKeyID, sourceCfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Custom endpoint for S3-compatible storage (MinIO, Localstack).
		if sourceCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(sourceCfg.Endpoint)
			o.UsePathStyle = true
		}
		if sourceCfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return assetS3.NewSource(assetS3.SourceConfig{
		Client:    client,
		Bucket:    sourceCfg.Bucket,
		KeyPrefix: sourceCfg.KeyPrefix,
	})
}
