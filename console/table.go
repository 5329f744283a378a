// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package console

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/eclipse-hono/regctl/cli/api"
)

const DefaultPageSize = 50

var PageSizeOptions = []int{50, 100, 200}

// Pager tracks the page of a list view.
type Pager struct {
	Size   int
	Offset int
}

func NewPager(size int) Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return Pager{Size: size}
}

// ChangePage moves to a 1 based page number.
func (p *Pager) ChangePage(page int) {
	page = max(page, 1)
	p.Offset = (page - 1) * p.Size
}

// ChangeSize sets a new page size and returns to the first page. A size
// that is not positive is ignored and false is returned.
func (p *Pager) ChangeSize(size int) bool {
	if size <= 0 {
		return false
	}
	p.Size = size
	p.Offset = 0
	return true
}

func (p Pager) Page() int {
	return p.Offset/p.Size + 1
}

// Pages returns the number of pages needed for total items.
func (p Pager) Pages(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + p.Size - 1) / p.Size
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
	SortNone SortDirection = ""
)

// Next returns the direction following d on a header click.
func (d SortDirection) Next() SortDirection {
	switch d {
	case SortAsc:
		return SortDesc
	case SortDesc:
		return SortNone
	default:
		return SortAsc
	}
}

type SortEvent struct {
	Column    string
	Direction SortDirection
}

// SortHeaders is the sort state of a table. Only one column is sorted at a
// time: rotating a column resets every other one.
type SortHeaders struct {
	directions map[string]SortDirection
}

func (h *SortHeaders) Rotate(column string) SortEvent {
	dir := h.Direction(column).Next()
	h.directions = map[string]SortDirection{column: dir}
	return SortEvent{Column: column, Direction: dir}
}

func (h *SortHeaders) Direction(column string) SortDirection {
	return h.directions[column]
}

// SortItems sorts items in place by a JSON column path such as "id" or
// "status.created" and returns them. Items are left untouched when the
// column or direction is empty.
func SortItems[T any](items []T, ev SortEvent) []T {
	if len(items) == 0 || ev.Column == "" || ev.Direction == SortNone {
		return items
	}
	type keyed struct {
		key  any
		item T
	}
	rows := make([]keyed, len(items))
	for i, item := range items {
		rows[i] = keyed{key: columnValue(item, ev.Column), item: item}
	}
	slices.SortStableFunc(rows, func(a, b keyed) int {
		res := compareValues(a.key, b.key)
		if ev.Direction == SortDesc {
			return -res
		}
		return res
	})
	for i := range rows {
		items[i] = rows[i].item
	}
	return items
}

func columnValue(item any, column string) any {
	buf, err := json.Marshal(item)
	if err != nil {
		return nil
	}
	var cur any
	if err := json.Unmarshal(buf, &cur); err != nil {
		return nil
	}
	for _, part := range strings.Split(column, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[part]
	}
	return cur
}

// normalize maps empty values to "", keeps numbers and lower cases the rest.
func normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		if !val {
			return ""
		}
		return "true"
	case float64:
		if val == 0 {
			return ""
		}
		return val
	case string:
		if val == "" {
			return ""
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
		return strings.ToLower(val)
	default:
		return strings.ToLower(fmt.Sprint(val))
	}
}

func compareValues(a, b any) int {
	na, nb := normalize(a), normalize(b)
	fa, aNum := na.(float64)
	fb, bNum := nb.(float64)
	if aNum && bNum {
		return cmp.Compare(fa, fb)
	}
	return cmp.Compare(fmt.Sprint(na), fmt.Sprint(nb))
}

// SearchFilter keeps the items whose ID contains term, ignoring case.
func SearchFilter[T any](items []T, term string, id func(T) string) []T {
	if term == "" {
		return items
	}
	term = strings.ToLower(term)
	return lo.Filter(items, func(item T, _ int) bool {
		return strings.Contains(strings.ToLower(id(item)), term)
	})
}

func DeviceID(d *api.Device) string { return d.ID }

func TenantID(t *api.Tenant) string { return t.ID }

// CreationTime is the creation timestamp as reported or "-".
func CreationTime(d *api.Device) string {
	if created := d.Created(); created != "" {
		return created
	}
	return "-"
}

const mediumDateTime = "Jan 2, 2006, 3:04:05 PM"

// CreationTimeMedium renders the creation timestamp in UTC, for example
// "Jun 14, 2023, 10:30:00 AM". Unparsable values are returned as is.
func CreationTimeMedium(d *api.Device) string {
	created := d.Created()
	if created == "" {
		return "-"
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return created
	}
	return ts.UTC().Format(mediumDateTime)
}

// MessagingTypeLabel is the tenant messaging type or "-".
func MessagingTypeLabel(t *api.Tenant) string {
	if mt := t.MessagingType(); mt != "" {
		return mt
	}
	return "-"
}
