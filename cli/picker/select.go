// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package picker

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/eclipse-hono/regctl/console"
	"github.com/eclipse-hono/regctl/context"
)

// SelectIDs selects the candidates with the given IDs without user
// interaction, paging through the modal until every ID was found.
func SelectIDs(ctx context.Context, modal *console.BindModal, ids []string) error {
	missing := lo.Uniq(ids)
	// Count leaves out the devices hidden from a bind modal, the listing
	// itself does not.
	lastPage := modal.Pager.Pages(modal.Count + modal.BoundDevicesCount + 1)
	for {
		missing = lo.Filter(missing, func(id string, _ int) bool { return !modal.SelectByID(id) })
		if len(missing) == 0 {
			return nil
		}
		page := modal.Pager.Page()
		if page >= lastPage {
			return fmt.Errorf("%w: not selectable: %s", console.ErrInvalid, strings.Join(missing, ", "))
		}
		if err := modal.ChangePage(ctx, page+1); err != nil {
			return err
		}
	}
}
