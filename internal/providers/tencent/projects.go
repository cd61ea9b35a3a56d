package tencent

import (
	"context"
	"fmt"
	"sync"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tag "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tag/v20180813"

	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
)

// projectDirectory resolves project IDs to names through the tag API.
// The full project list is fetched once per account and cached; a lookup
// miss returns the empty string so callers fall back to the default label.
type projectDirectory struct {
	cred   *common.Credential
	cpf    *profile.ClientProfile
	logger *logger.Logger

	once  sync.Once
	names map[int64]string
}

func newProjectDirectory(cred *common.Credential, cpf *profile.ClientProfile, log *logger.Logger) *projectDirectory {
	return &projectDirectory{
		cred:   cred,
		cpf:    cpf,
		logger: log,
		names:  make(map[int64]string),
	}
}

// Lookup returns the project name for an ID, or "" when unknown.
func (d *projectDirectory) Lookup(ctx context.Context, projectID int64) string {
	d.once.Do(func() {
		if err := d.load(ctx); err != nil {
			d.logger.ErrorWithErr(err, "Failed to load project directory")
		}
	})
	return d.names[projectID]
}

func (d *projectDirectory) load(ctx context.Context) error {
	client, err := tag.NewClient(d.cred, defaultRegion, d.cpf)
	if err != nil {
		return fmt.Errorf("failed to create tag client: %w", err)
	}

	var offset uint64
	for {
		req := tag.NewDescribeProjectsRequest()
		req.AllList = common.Uint64Ptr(1)
		req.Limit = common.Uint64Ptr(pageSize)
		req.Offset = common.Uint64Ptr(offset)

		resp, err := client.DescribeProjectsWithContext(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to describe projects: %w", err)
		}

		projects := resp.Response.Projects
		for _, p := range projects {
			if p.ProjectId == nil {
				continue
			}
			d.names[int64(*p.ProjectId)] = deref(p.ProjectName)
		}

		if len(projects) < pageSize {
			return nil
		}
		offset += pageSize
	}
}
