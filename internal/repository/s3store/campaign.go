// Package s3store loads campaign configurations from JSON objects in an S3
// bucket. Every object under the prefix is one {"CampaignConfig": ...}
// document; a malformed document fails the load, naming the object key.
package s3store

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/eligibility-api/internal/campaign"
)

// CampaignStore reads campaign configs from a bucket prefix.
type CampaignStore struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewCampaignStore creates a store over the given bucket and key prefix.
func NewCampaignStore(client *s3.Client, bucket, prefix string) *CampaignStore {
	return &CampaignStore{client: client, bucket: bucket, prefix: prefix}
}

// ListConfigs loads and validates every campaign config under the prefix,
// sorted by campaign ID for determinism.
func (s *CampaignStore) ListConfigs(ctx context.Context) ([]campaign.Config, error) {
	var configs []campaign.Config

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing campaign configs: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			cfg, err := s.getConfig(ctx, key)
			if err != nil {
				return nil, err
			}
			configs = append(configs, *cfg)
		}
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })
	return configs, nil
}

func (s *CampaignStore) getConfig(ctx context.Context, key string) (*campaign.Config, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting campaign config %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading campaign config %s: %w", key, err)
	}
	cfg, err := campaign.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("campaign config %s: %w", key, err)
	}
	return cfg, nil
}
