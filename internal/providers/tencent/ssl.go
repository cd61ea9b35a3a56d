package tencent

import (
	"context"
	"fmt"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	ssl "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/ssl/v20191205"

	"github.com/ops-tools/tcmonitor/internal/domain/resource"
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
)

// certStatusIssued is the certificate lifecycle status for issued certs;
// only these carry a meaningful expiry.
const certStatusIssued = 1

// SSLCollector lists server TLS certificates for the whole account
type SSLCollector struct {
	cred   *common.Credential
	cpf    *profile.ClientProfile
	logger *logger.Logger
}

func (c *SSLCollector) Kind() resource.Kind {
	return resource.KindCertificate
}

func (c *SSLCollector) List(ctx context.Context) ([]resource.Record, error) {
	client, err := ssl.NewClient(c.cred, defaultRegion, c.cpf)
	if err != nil {
		return nil, fmt.Errorf("failed to create ssl client: %w", err)
	}

	var records []resource.Record
	var offset uint64
	for {
		req := ssl.NewDescribeCertificatesRequest()
		req.Limit = common.Uint64Ptr(pageSize)
		req.Offset = common.Uint64Ptr(offset)
		req.CertificateType = common.StringPtr("SVR")
		req.ExpirationSort = common.StringPtr("DESC")

		resp, err := client.DescribeCertificatesWithContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to describe certificates: %w", err)
		}

		certs := resp.Response.Certificates
		for _, cert := range certs {
			if cert.Status == nil || *cert.Status != certStatusIssued {
				continue
			}
			if deref(cert.CertEndTime) == "" {
				continue
			}

			expires, err := parseLocalTime(*cert.CertEndTime)
			if err != nil {
				c.logger.WithFields(map[string]interface{}{
					"certificate": deref(cert.CertificateId),
				}).ErrorWithErr(err, "Skipping certificate with unparseable end time")
				continue
			}

			rec := resource.Record{
				Kind:        resource.KindCertificate,
				ID:          deref(cert.CertificateId),
				Name:        deref(cert.Domain),
				ExpiresAt:   expires,
				Status:      deref(cert.StatusName),
				ProductName: deref(cert.ProductZhName),
			}
			if cert.IsWildcard != nil {
				rec.Wildcard = *cert.IsWildcard
			}
			if cert.ProjectInfo != nil {
				rec.ProjectName = deref(cert.ProjectInfo.ProjectName)
			}
			for _, san := range cert.SubjectAltName {
				if deref(san) != "" {
					rec.SANs = append(rec.SANs, *san)
				}
			}
			records = append(records, rec)
		}

		if len(certs) < pageSize {
			return records, nil
		}
		offset += pageSize
	}
}
