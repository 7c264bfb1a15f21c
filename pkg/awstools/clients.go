// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package awstools

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	lru "github.com/hashicorp/golang-lru/v2"
)

// S3API is the subset of the S3 client used by the S3 toolset.
type S3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// STSAPI is the subset of the STS client used by the STS toolset.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// S3ClientFunc returns an S3 client for region ("" for the default region).
type S3ClientFunc func(ctx context.Context, region string) (S3API, error)

// STSClientFunc returns an STS client for region ("" for the default region).
type STSClientFunc func(ctx context.Context, region string) (STSAPI, error)

// Options configures how AWS clients are built.
type Options struct {
	Region  string // default region, e.g. "us-east-1"
	Profile string // shared config profile
	// S3Endpoint is a custom endpoint for MinIO compatibility. It switches
	// the S3 client to path-style addressing.
	S3Endpoint string
}

func (o Options) params() map[string]string {
	return map[string]string{
		"region":      o.Region,
		"profile":     o.Profile,
		"s3_endpoint": o.S3Endpoint,
	}
}

func optionsFromParams(params map[string]string) Options {
	return Options{
		Region:     params["region"],
		Profile:    params["profile"],
		S3Endpoint: params["s3_endpoint"],
	}
}

// maxCachedRegions bounds each per-region cache. The region argument comes
// from tool callers, so the set of keys is not fixed.
const maxCachedRegions = 32

// Clients builds AWS service clients from the default credential chain and
// caches one configuration and one client per region.
type Clients struct {
	opts Options

	mu      sync.Mutex
	configs *lru.Cache[string, aws.Config]
	s3      *lru.Cache[string, *s3.Client]
	sts     *lru.Cache[string, *sts.Client]
}

// NewClients creates a client cache. Nothing is loaded until first use.
func NewClients(opts Options) *Clients {
	return &Clients{
		opts:    opts,
		configs: newCache[aws.Config](),
		s3:      newCache[*s3.Client](),
		sts:     newCache[*sts.Client](),
	}
}

func newCache[V any]() *lru.Cache[string, V] {
	// lru.New only fails for a non-positive size.
	c, _ := lru.New[string, V](maxCachedRegions)
	return c
}

// config returns the cached configuration for region. Callers hold c.mu.
func (c *Clients) config(ctx context.Context, region string) (aws.Config, error) {
	if cfg, ok := c.configs.Get(region); ok {
		return cfg, nil
	}

	optFns := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		optFns = append(optFns, awsconfig.WithRegion(region))
	}
	if c.opts.Profile != "" {
		optFns = append(optFns, awsconfig.WithSharedConfigProfile(c.opts.Profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	c.configs.Add(region, cfg)
	return cfg, nil
}

func (c *Clients) region(region string) string {
	if region == "" {
		return c.opts.Region
	}
	return region
}

// S3 returns the S3 client for region.
func (c *Clients) S3(ctx context.Context, region string) (S3API, error) {
	region = c.region(region)

	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.s3.Get(region); ok {
		return client, nil
	}

	cfg, err := c.config(ctx, region)
	if err != nil {
		return nil, err
	}

	s3Opts := []func(*s3.Options){}
	if c.opts.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(c.opts.S3Endpoint)
			o.UsePathStyle = true // required for MinIO
		})
	}

	client := s3.NewFromConfig(cfg, s3Opts...)
	c.s3.Add(region, client)
	return client, nil
}

// STS returns the STS client for region.
func (c *Clients) STS(ctx context.Context, region string) (STSAPI, error) {
	region = c.region(region)

	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.sts.Get(region); ok {
		return client, nil
	}

	cfg, err := c.config(ctx, region)
	if err != nil {
		return nil, err
	}
	client := sts.NewFromConfig(cfg)
	c.sts.Add(region, client)
	return client, nil
}

var (
	sharedMu      sync.Mutex
	sharedClients = map[Options]*Clients{}
)

// clientsFor returns one Clients per distinct Options so that every toolset
// built from the same configuration shares its cache.
func clientsFor(opts Options) *Clients {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if c, ok := sharedClients[opts]; ok {
		return c
	}
	c := NewClients(opts)
	sharedClients[opts] = c
	return c
}
