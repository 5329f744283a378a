// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package console

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/eclipse-hono/regctl/cli/api"
	logctx "github.com/eclipse-hono/regctl/context"
)

// CascadeResult reports a batch of device updates. A failed update is not
// retried and nothing that succeeded is rolled back.
type CascadeResult struct {
	Updated []string
	Failed  map[string]error
}

// Err joins the failures in device ID order, or returns nil.
func (r CascadeResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	errs := make([]error, 0, len(ids))
	for _, id := range ids {
		errs = append(errs, fmt.Errorf("device %s: %w", id, r.Failed[id]))
	}
	return errors.Join(errs...)
}

// updateAll issues one update per device, all at once.
func updateAll(ctx context.Context, devices DeviceService, tenantID string, targets []*api.Device) CascadeResult {
	res := CascadeResult{Failed: make(map[string]error)}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	log := logctx.CtxGetLog(ctx)
	for _, d := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := devices.Update(ctx, d, tenantID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Error("device update failed", "tenant", tenantID, "device", d.ID, "error", err)
				res.Failed[d.ID] = err
			} else {
				res.Updated = append(res.Updated, d.ID)
			}
		}()
	}
	wg.Wait()
	slices.Sort(res.Updated)
	return res
}

// removeVia drops the first occurrence of id from the device's via list and
// reports whether it was present.
func removeVia(d *api.Device, id string) bool {
	idx := slices.Index(d.Via, id)
	if idx < 0 {
		return false
	}
	d.Via = slices.Delete(d.Via, idx, idx+1)
	return true
}

// appendVia adds id unless it is already listed.
func appendVia(d *api.Device, id string) bool {
	if d.Via == nil {
		d.Via = []string{}
	}
	if slices.Contains(d.Via, id) {
		return false
	}
	d.Via = append(d.Via, id)
	return true
}

// cascadeUnbind removes a deleted gateway from the devices bound to it. Only
// the page described by pager is looked up, so devices beyond it keep a
// dangling reference.
func cascadeUnbind(ctx context.Context, s *Services, tenantID, gatewayID string, pager Pager) (CascadeResult, error) {
	log := logctx.CtxGetLog(ctx).With("tenant", tenantID, "gateway", gatewayID)
	list, err := s.Devices.ListBoundDevices(ctx, tenantID, gatewayID, pager.Size, pager.Offset)
	if err != nil {
		log.Error("unable to list devices bound to deleted gateway", "error", err)
		s.Notify.Error("Could not unbind devices from deleted gateway " + gatewayID)
		return CascadeResult{}, fmt.Errorf("unable to list devices bound to %s: %w", gatewayID, err)
	}
	var targets []*api.Device
	for _, d := range list.Result {
		if d.Via != nil && removeVia(d, gatewayID) {
			targets = append(targets, d)
		}
	}
	res := updateAll(ctx, s.Devices, tenantID, targets)
	log.Info("cascade unbind finished", "updated", len(res.Updated), "failed", len(res.Failed))
	if len(res.Failed) > 0 {
		s.Notify.Error(fmt.Sprintf("Could not unbind %d device(s) from deleted gateway %s", len(res.Failed), gatewayID))
	}
	return res, res.Err()
}
