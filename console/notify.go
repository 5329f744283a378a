// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package console

import (
	"sync"
)

type ToastLevel string

const (
	ToastSuccess ToastLevel = "Success"
	ToastError   ToastLevel = "Error"
)

type Toast struct {
	Level    ToastLevel
	Message  string
	AutoHide bool
}

// Notifications collects the toasts raised by view models. Success toasts
// hide on their own, errors stay until drained.
type Notifications struct {
	mu     sync.Mutex
	toasts []Toast

	// OnToast, when set, is called for every new toast.
	OnToast func(Toast)
}

func NewNotifications() *Notifications {
	return &Notifications{}
}

func (n *Notifications) Success(msg string) {
	n.show(Toast{Level: ToastSuccess, Message: msg, AutoHide: true})
}

func (n *Notifications) Error(msg string) {
	n.show(Toast{Level: ToastError, Message: msg, AutoHide: false})
}

func (n *Notifications) show(t Toast) {
	n.mu.Lock()
	n.toasts = append(n.toasts, t)
	cb := n.OnToast
	n.mu.Unlock()
	if cb != nil {
		cb(t)
	}
}

// Drain returns the pending toasts and clears them.
func (n *Notifications) Drain() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	ret := n.toasts
	n.toasts = nil
	return ret
}
