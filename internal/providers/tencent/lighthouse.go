package tencent

import (
	"context"
	"fmt"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	lighthouse "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/lighthouse/v20200324"

	"github.com/ops-tools/tcmonitor/internal/domain/resource"
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
)

// LighthouseCollector lists Lighthouse lightweight instances in one region
type LighthouseCollector struct {
	cred   *common.Credential
	cpf    *profile.ClientProfile
	logger *logger.Logger
}

func (c *LighthouseCollector) Kind() resource.Kind {
	return resource.KindLighthouse
}

func (c *LighthouseCollector) List(ctx context.Context, region string) ([]resource.Record, error) {
	client, err := lighthouse.NewClient(c.cred, region, c.cpf)
	if err != nil {
		return nil, fmt.Errorf("failed to create lighthouse client: %w", err)
	}

	var records []resource.Record
	var offset int64
	for {
		req := lighthouse.NewDescribeInstancesRequest()
		req.Limit = common.Int64Ptr(pageSize)
		req.Offset = common.Int64Ptr(offset)

		resp, err := client.DescribeInstancesWithContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to describe lighthouse instances in %s: %w", region, err)
		}

		instances := resp.Response.InstanceSet
		for _, inst := range instances {
			if deref(inst.ExpiredTime) == "" {
				continue
			}

			expires, err := parseUTCTime(*inst.ExpiredTime)
			if err != nil {
				c.logger.WithFields(map[string]interface{}{
					"instance": deref(inst.InstanceId),
					"region":   region,
				}).ErrorWithErr(err, "Skipping lighthouse instance with unparseable expiry")
				continue
			}

			records = append(records, resource.Record{
				Kind:      resource.KindLighthouse,
				ID:        deref(inst.InstanceId),
				Name:      deref(inst.InstanceName),
				Region:    deref(inst.Zone),
				ExpiresAt: expires,
				Status:    deref(inst.InstanceState),
			})
		}

		if len(instances) < pageSize {
			return records, nil
		}
		offset += pageSize
	}
}
