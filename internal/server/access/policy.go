// Package access holds the journal authorization table. Every decision about
// who may touch a counseling journal is made by Authorize and nowhere else.
package access

import (
	"fmt"

	"github.com/dmitrijs2005/bkjournal/internal/common"
	"github.com/dmitrijs2005/bkjournal/internal/server/models"
)

// Action is an operation on journals.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

type rule struct {
	role models.Role
	// owner requires principal.CounselorID == record.CounselorID.
	owner bool
}

// No entry grants anything to ADMIN or any other role, and there is no
// override path around the owner check.
var table = map[Action]rule{
	ActionCreate: {role: models.RoleCounselor},
	ActionRead:   {role: models.RoleCounselor, owner: true},
	ActionUpdate: {role: models.RoleCounselor, owner: true},
	ActionDelete: {role: models.RoleCounselor, owner: true},
	ActionList:   {role: models.RoleCounselor},
}

// Authorize returns nil when p may perform action on a journal owned by
// ownerCounselorID, and an error wrapping common.ErrForbidden otherwise.
// ownerCounselorID is ignored for actions that do not target a record.
func Authorize(action Action, p models.Principal, ownerCounselorID string) error {
	r, ok := table[action]
	if !ok {
		return fmt.Errorf("%w: unknown action %q", common.ErrForbidden, action)
	}

	if p.Role != r.role {
		return fmt.Errorf("%w: role %s may not %s journals", common.ErrForbidden, p.Role, action)
	}

	if p.CounselorID == "" {
		return fmt.Errorf("%w: principal has no counselor id", common.ErrForbidden)
	}

	if r.owner && p.CounselorID != ownerCounselorID {
		return fmt.Errorf("%w: not the authoring counselor", common.ErrForbidden)
	}

	return nil
}
