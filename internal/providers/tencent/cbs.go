package tencent

import (
	"context"
	"fmt"

	cbs "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/cbs/v20170312"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"

	"github.com/ops-tools/tcmonitor/internal/domain/resource"
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
)

// CBSCollector lists CBS block-storage volumes in one region
type CBSCollector struct {
	cred   *common.Credential
	cpf    *profile.ClientProfile
	logger *logger.Logger
}

func (c *CBSCollector) Kind() resource.Kind {
	return resource.KindVolume
}

func (c *CBSCollector) List(ctx context.Context, region string) ([]resource.Record, error) {
	client, err := cbs.NewClient(c.cred, region, c.cpf)
	if err != nil {
		return nil, fmt.Errorf("failed to create cbs client: %w", err)
	}

	var records []resource.Record
	var offset uint64
	for {
		req := cbs.NewDescribeDisksRequest()
		req.Limit = common.Uint64Ptr(pageSize)
		req.Offset = common.Uint64Ptr(offset)

		resp, err := client.DescribeDisksWithContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to describe cbs disks in %s: %w", region, err)
		}

		disks := resp.Response.DiskSet
		for _, disk := range disks {
			if deref(disk.DeadlineTime) == "" {
				continue
			}

			expires, err := parseLocalTime(*disk.DeadlineTime)
			if err != nil {
				c.logger.WithFields(map[string]interface{}{
					"disk":   deref(disk.DiskId),
					"region": region,
				}).ErrorWithErr(err, "Skipping cbs disk with unparseable deadline")
				continue
			}

			rec := resource.Record{
				Kind:      resource.KindVolume,
				ID:        deref(disk.DiskId),
				Name:      deref(disk.DiskName),
				ExpiresAt: expires,
				Status:    deref(disk.DiskState),
			}
			if disk.Placement != nil {
				rec.Region = deref(disk.Placement.Zone)
				rec.ProjectName = deref(disk.Placement.ProjectName)
				if disk.Placement.ProjectId != nil {
					rec.ProjectID = int64(*disk.Placement.ProjectId)
				}
			}
			records = append(records, rec)
		}

		if len(disks) < pageSize {
			return records, nil
		}
		offset += pageSize
	}
}
