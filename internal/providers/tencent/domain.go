package tencent

import (
	"context"
	"fmt"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	domainsdk "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/domain/v20180808"

	"github.com/ops-tools/tcmonitor/internal/domain/resource"
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
)

// DomainCollector lists registered domains for the whole account
type DomainCollector struct {
	cred   *common.Credential
	cpf    *profile.ClientProfile
	logger *logger.Logger
}

func (c *DomainCollector) Kind() resource.Kind {
	return resource.KindDomain
}

func (c *DomainCollector) List(ctx context.Context) ([]resource.Record, error) {
	client, err := domainsdk.NewClient(c.cred, defaultRegion, c.cpf)
	if err != nil {
		return nil, fmt.Errorf("failed to create domain client: %w", err)
	}

	var records []resource.Record
	var offset uint64
	for {
		req := domainsdk.NewDescribeDomainNameListRequest()
		req.Limit = common.Uint64Ptr(pageSize)
		req.Offset = common.Uint64Ptr(offset)

		resp, err := client.DescribeDomainNameListWithContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to describe domains: %w", err)
		}

		domains := resp.Response.DomainSet
		for _, d := range domains {
			if deref(d.ExpirationDate) == "" {
				continue
			}

			expires, err := parseDate(*d.ExpirationDate)
			if err != nil {
				c.logger.WithFields(map[string]interface{}{
					"domain": deref(d.DomainName),
				}).ErrorWithErr(err, "Skipping domain with unparseable expiration date")
				continue
			}

			records = append(records, resource.Record{
				Kind:      resource.KindDomain,
				ID:        deref(d.DomainId),
				Name:      deref(d.DomainName),
				ExpiresAt: expires,
				Status:    deref(d.BuyStatus),
			})
		}

		if len(domains) < pageSize {
			return records, nil
		}
		offset += pageSize
	}
}
