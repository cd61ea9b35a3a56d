package tencent

import (
	"context"
	"fmt"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	cvm "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/cvm/v20170312"

	"github.com/ops-tools/tcmonitor/internal/domain/resource"
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
)

// CVMCollector lists CVM compute instances in one region
type CVMCollector struct {
	cred     *common.Credential
	cpf      *profile.ClientProfile
	projects *projectDirectory
	logger   *logger.Logger
}

func (c *CVMCollector) Kind() resource.Kind {
	return resource.KindCompute
}

func (c *CVMCollector) List(ctx context.Context, region string) ([]resource.Record, error) {
	client, err := cvm.NewClient(c.cred, region, c.cpf)
	if err != nil {
		return nil, fmt.Errorf("failed to create cvm client: %w", err)
	}

	var records []resource.Record
	var offset int64
	for {
		req := cvm.NewDescribeInstancesRequest()
		req.Limit = common.Int64Ptr(pageSize)
		req.Offset = common.Int64Ptr(offset)

		resp, err := client.DescribeInstancesWithContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to describe cvm instances in %s: %w", region, err)
		}

		instances := resp.Response.InstanceSet
		for _, inst := range instances {
			// Postpaid instances carry no expiry.
			if deref(inst.ExpiredTime) == "" {
				continue
			}

			expires, err := parseUTCTime(*inst.ExpiredTime)
			if err != nil {
				c.logger.WithFields(map[string]interface{}{
					"instance": deref(inst.InstanceId),
					"region":   region,
				}).ErrorWithErr(err, "Skipping cvm instance with unparseable expiry")
				continue
			}

			rec := resource.Record{
				Kind:      resource.KindCompute,
				ID:        deref(inst.InstanceId),
				Name:      deref(inst.InstanceName),
				ExpiresAt: expires,
				Status:    deref(inst.InstanceState),
			}
			if inst.Placement != nil {
				rec.Region = deref(inst.Placement.Zone)
				if inst.Placement.ProjectId != nil {
					rec.ProjectID = *inst.Placement.ProjectId
					rec.ProjectName = c.projects.Lookup(ctx, *inst.Placement.ProjectId)
				}
			}
			records = append(records, rec)
		}

		if len(instances) < pageSize {
			return records, nil
		}
		offset += pageSize
	}
}
