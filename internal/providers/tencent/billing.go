package tencent

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	billingsdk "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/billing/v20180709"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"

	"github.com/ops-tools/tcmonitor/internal/domain/billing"
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
)

// BillingSource fetches account balance and the current month's bill
type BillingSource struct {
	cred   *common.Credential
	cpf    *profile.ClientProfile
	region string
	now    func() time.Time
	logger *logger.Logger
}

// Balance returns the real available balance in CNY. The API reports cents.
func (b *BillingSource) Balance(ctx context.Context) (float64, error) {
	client, err := billingsdk.NewClient(b.cred, b.region, b.cpf)
	if err != nil {
		return 0, fmt.Errorf("failed to create billing client: %w", err)
	}

	req := billingsdk.NewDescribeAccountBalanceRequest()
	resp, err := client.DescribeAccountBalanceWithContext(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("failed to describe account balance: %w", err)
	}
	if resp.Response.RealBalance == nil {
		return 0, fmt.Errorf("account balance response carried no real balance")
	}

	return float64(*resp.Response.RealBalance) / 100, nil
}

// MonthlyBill returns the current month's bill summary grouped by project,
// with a per-service cost breakdown inside each project.
func (b *BillingSource) MonthlyBill(ctx context.Context) (billing.Bill, error) {
	client, err := billingsdk.NewClient(b.cred, b.region, b.cpf)
	if err != nil {
		return nil, fmt.Errorf("failed to create billing client: %w", err)
	}

	req := billingsdk.NewDescribeBillSummaryRequest()
	req.Month = common.StringPtr(b.now().In(cst).Format("2006-01"))
	req.GroupType = common.StringPtr("project")

	resp, err := client.DescribeBillSummaryWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to describe bill summary: %w", err)
	}

	bill := make(billing.Bill)
	for _, project := range resp.Response.SummaryDetail {
		name := deref(project.GroupValue)
		if name == "" {
			name = billing.DefaultProject
		}

		pb := billing.ProjectBill{
			Total:    b.parseCost(deref(project.RealTotalCost)),
			Services: make(map[string]billing.ServiceCost),
		}
		for _, business := range project.Business {
			service := deref(business.BusinessCodeName)
			if service == "" {
				continue
			}
			pb.Services[service] = billing.ServiceCost{
				RealCost: b.parseCost(deref(business.RealTotalCost)),
				ListCost: b.parseCost(deref(business.TotalCost)),
				CashPaid: b.parseCost(deref(business.CashPayAmount)),
			}
		}
		bill[name] = pb
	}

	return bill, nil
}

// parseCost converts the API's string amounts to CNY rounded to fen.
func (b *BillingSource) parseCost(value string) float64 {
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		b.logger.Warnf("Unparseable cost amount %q, treating as 0", value)
		return 0
	}
	return math.Round(f*100) / 100
}
