// Package awsprovider implements providers.AWSProvider against EC2, RDS,
// and S3, using the aws-sdk-go-v2 config.LoadDefaultConfig +
// service.NewFromConfig idiom the pack's bgdnvk-clanker repo uses for its
// own multi-service AWS client.
package awsprovider

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Provider implements providers.AWSProvider. CloudTrail lookups are not
// wired: the corpus carries no CloudTrail client example, and no
// SPEC_FULL.md evidence path needs per-event audit trails beyond the
// resource-status snapshots EC2/RDS/S3 already provide.
type Provider struct {
	ec2 *ec2.Client
	rds *rds.Client
	s3  *s3.Client
}

// New loads the default AWS SDK config (env vars, shared config/credentials
// files, EC2/ECS instance roles — whichever chain resolves first) scoped
// to region, and builds the per-service clients this provider dispatches
// to by resource kind.
func New(ctx context.Context, region string) (*Provider, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws sdk config: %w", err)
	}
	return &Provider{
		ec2: ec2.NewFromConfig(cfg),
		rds: rds.NewFromConfig(cfg),
		s3:  s3.NewFromConfig(cfg),
	}, nil
}

// ResourceStatus dispatches by kind ("ec2", "rds", "s3") and returns one
// status map per requested id. A per-id lookup failure is recorded as an
// "error" field on that id's entry rather than failing the whole call —
// the evidence stage treats this the same as any other best-effort
// source.
func (p *Provider) ResourceStatus(ctx context.Context, kind string, ids []string) (map[string]map[string]any, error) {
	switch kind {
	case "ec2":
		return p.ec2Status(ctx, ids), nil
	case "rds":
		return p.rdsStatus(ctx, ids), nil
	case "s3":
		return p.s3Status(ctx, ids), nil
	default:
		return nil, fmt.Errorf("unsupported aws resource kind %q", kind)
	}
}

func (p *Provider) ec2Status(ctx context.Context, ids []string) map[string]map[string]any {
	out := make(map[string]map[string]any, len(ids))
	resp, err := p.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: ids})
	if err != nil {
		for _, id := range ids {
			out[id] = map[string]any{"error": err.Error()}
		}
		return out
	}
	for _, res := range resp.Reservations {
		for _, inst := range res.Instances {
			id := aws.ToString(inst.InstanceId)
			out[id] = map[string]any{
				"state":         string(inst.State.Name),
				"instance_type": string(inst.InstanceType),
				"az":            aws.ToString(inst.Placement.AvailabilityZone),
				"launch_time":   inst.LaunchTime,
			}
		}
	}
	return out
}

func (p *Provider) rdsStatus(ctx context.Context, ids []string) map[string]map[string]any {
	out := make(map[string]map[string]any, len(ids))
	for _, id := range ids {
		resp, err := p.rds.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{DBInstanceIdentifier: aws.String(id)})
		if err != nil || len(resp.DBInstances) == 0 {
			entry := map[string]any{}
			if err != nil {
				entry["error"] = err.Error()
			}
			out[id] = entry
			continue
		}
		db := resp.DBInstances[0]
		out[id] = map[string]any{
			"status":         aws.ToString(db.DBInstanceStatus),
			"engine":         aws.ToString(db.Engine),
			"multi_az":       aws.ToBool(db.MultiAZ),
			"instance_class": aws.ToString(db.DBInstanceClass),
		}
	}
	return out
}

func (p *Provider) s3Status(ctx context.Context, ids []string) map[string]map[string]any {
	out := make(map[string]map[string]any, len(ids))
	for _, bucket := range ids {
		_, err := p.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
		entry := map[string]any{"reachable": err == nil}
		if err != nil {
			entry["error"] = err.Error()
		}
		out[bucket] = entry
	}
	return out
}

// CloudTrailEvents is unimplemented: see the package doc comment.
func (p *Provider) CloudTrailEvents(ctx context.Context, resourceID string, window domain.TimeWindow) ([]map[string]any, error) {
	return nil, nil
}
