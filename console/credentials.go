// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package console

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/eclipse-hono/regctl/cli/api"
	logctx "github.com/eclipse-hono/regctl/context"
)

const (
	publicKeyHeader = "-----BEGIN PUBLIC KEY-----"
	publicKeyFooter = "-----END PUBLIC KEY-----"
	certHeader      = "-----BEGIN CERTIFICATE-----"
	certFooter      = "-----END CERTIFICATE-----"

	// SecretTimeFormat is the format of not-before and not-after.
	SecretTimeFormat = "2006-01-02T15:04:05.000Z"
)

var KeyAlgorithms = []string{"EC", "RSA"}

// PasswordInput is the secret of a hashed-password credential. Without a
// hash function the plain password is sent and hashed by the registry. With
// one, PwdHash is sent, computed locally from Password when left empty.
type PasswordInput struct {
	Password     string
	HashFunction string
	PwdHash      string
	Salt         string
}

// RpkInput is the secret of an rpk credential: a public key with its
// algorithm, or a certificate.
type RpkInput struct {
	UsePublicKey bool
	Key          string
	Algorithm    string
	Cert         string
	NotBefore    time.Time
	NotAfter     time.Time
}

// CredentialsForm adds a credential to a device or edits one. The complete
// credentials set of the device is saved on confirm.
type CredentialsForm struct {
	s *Services

	TenantID string
	DeviceID string
	IsNew    bool
	AuthType api.CredentialType
	AuthID   string

	// Credentials is the device's credentials set as it will be saved.
	Credentials []api.Credentials

	secrets       []api.Secret
	secretInvalid bool
	usePublicKey  bool
	editIdx       int
}

// NewCredentialsForm adds a new credential to creds.
func NewCredentialsForm(s *Services, tenantID, deviceID string, creds []api.Credentials) *CredentialsForm {
	return &CredentialsForm{
		s:            s,
		TenantID:     tenantID,
		DeviceID:     deviceID,
		IsNew:        true,
		Credentials:  slices.Clone(creds),
		usePublicKey: true,
		editIdx:      -1,
	}
}

// NewEditCredentialsForm edits the credential with the auth ID in creds.
func NewEditCredentialsForm(s *Services, tenantID, deviceID string, creds []api.Credentials, authID string) *CredentialsForm {
	f := NewCredentialsForm(s, tenantID, deviceID, creds)
	idx := slices.IndexFunc(f.Credentials, func(c api.Credentials) bool { return c.AuthID == authID })
	if idx < 0 || f.Credentials[idx].Type == "" {
		return f
	}
	f.IsNew = false
	f.editIdx = idx
	f.AuthID = f.Credentials[idx].AuthID
	f.AuthType = f.Credentials[idx].Type
	f.secrets = slices.Clone(f.Credentials[idx].Secrets)
	return f
}

func (f *CredentialsForm) Title() string {
	if f.IsNew {
		return "Add Credentials"
	}
	return "Update Credentials"
}

// ChangeType switches the authentication type and drops the secret
// entered so far.
func (f *CredentialsForm) ChangeType(t api.CredentialType) {
	f.AuthType = t
	f.secrets = nil
	f.secretInvalid = true
}

// SetPassword validates and sets a hashed-password secret.
func (f *CredentialsForm) SetPassword(in PasswordInput) {
	f.usePublicKey = true
	secret := api.Secret{}
	switch {
	case in.HashFunction == "":
		secret.PwdPlain = in.Password
		f.secretInvalid = in.Password == ""
	case in.PwdHash == "" && in.Password != "":
		hashed, err := HashPassword(in.Password, in.HashFunction)
		secret = hashed
		f.secretInvalid = err != nil
	default:
		secret.HashFunction = in.HashFunction
		secret.PwdHash = in.PwdHash
		secret.Salt = in.Salt
		f.secretInvalid = in.PwdHash == ""
	}
	if !f.secretInvalid {
		f.secrets = []api.Secret{secret}
	}
}

// SetRpk validates and sets an rpk secret.
func (f *CredentialsForm) SetRpk(in RpkInput) {
	f.usePublicKey = in.UsePublicKey
	if in.UsePublicKey {
		f.secretInvalid = in.Key == "" || !slices.Contains(KeyAlgorithms, in.Algorithm)
	} else {
		f.secretInvalid = in.Cert == ""
	}
	if f.secretInvalid {
		return
	}
	secret := api.Secret{Key: in.Key, Algorithm: in.Algorithm, Cert: in.Cert}
	if !in.NotBefore.IsZero() {
		secret.NotBefore = in.NotBefore.UTC().Format(SecretTimeFormat)
	}
	if !in.NotAfter.IsZero() {
		secret.NotAfter = in.NotAfter.UTC().Format(SecretTimeFormat)
	}
	f.secrets = []api.Secret{secret}
}

func (f *CredentialsForm) IsInvalid() bool {
	if f.DeviceID == "" || f.TenantID == "" {
		return true
	}
	return len(f.secrets) == 0 || f.AuthID == "" || f.AuthType == "" || f.secretInvalid
}

// Confirm saves the credentials set. A new credential is dropped from the
// set again when saving fails.
func (f *CredentialsForm) Confirm(ctx context.Context) ([]api.Credentials, error) {
	if f.IsInvalid() {
		return nil, ErrInvalid
	}
	secret := f.secrets[0]
	trimKey(&secret)
	f.cleanCert(&secret)

	idx := f.editIdx
	if f.IsNew {
		f.Credentials = append(f.Credentials, api.Credentials{AuthID: f.AuthID, Type: f.AuthType})
		idx = len(f.Credentials) - 1
	}
	f.Credentials[idx].Secrets = []api.Secret{secret}

	if err := f.s.Credentials.Save(ctx, f.DeviceID, f.TenantID, f.Credentials); err != nil {
		logctx.CtxGetLog(ctx).Error("unable to save credentials", "tenant", f.TenantID, "device", f.DeviceID, "error", err)
		if f.IsNew {
			f.Credentials = slices.Delete(f.Credentials, idx, idx+1)
		}
		f.s.Notify.Error("Could not save credentials. Please check your inputs again.")
		return nil, err
	}
	return f.Credentials, nil
}

// trimKey strips PEM armour and line breaks from key and cert.
func trimKey(s *api.Secret) {
	if s.Key != "" {
		s.Key = strings.NewReplacer(publicKeyHeader, "", publicKeyFooter, "", "\n", "").Replace(s.Key)
	}
	if s.Cert != "" {
		s.Cert = strings.NewReplacer(certHeader, "", certFooter, "", "\n", "").Replace(s.Cert)
	}
}

func (f *CredentialsForm) cleanCert(s *api.Secret) {
	if !f.usePublicKey {
		s.Algorithm = ""
		s.Key = ""
	} else {
		s.Cert = ""
	}
}

// AuthenticationValue is one secret of a credential as shown in the
// authentication table.
type AuthenticationValue struct {
	ID        string
	Type      api.CredentialType
	AuthID    string
	NotBefore string
	NotAfter  string
	Algorithm string
	Key       string
}

// AuthenticationTypeLabel names a credential type.
func AuthenticationTypeLabel(t api.CredentialType) string {
	switch t {
	case "":
		return "-"
	case api.CredentialsRpk:
		return "JWT based"
	default:
		return "Password based"
	}
}

// CredentialsList is the authentication table of a device.
type CredentialsList struct {
	s *Services

	TenantID    string
	DeviceID    string
	Credentials []api.Credentials
	Values      []AuthenticationValue
}

func NewCredentialsList(s *Services, tenantID, deviceID string, creds []api.Credentials) *CredentialsList {
	l := &CredentialsList{s: s, TenantID: tenantID, DeviceID: deviceID}
	l.setCredentials(creds)
	return l
}

// setCredentials flattens the secrets of creds. The last secret comes
// first.
func (l *CredentialsList) setCredentials(creds []api.Credentials) {
	l.Credentials = creds
	l.Values = nil
	for _, c := range creds {
		for _, secret := range c.Secrets {
			v := AuthenticationValue{
				ID:        secret.ID,
				Type:      c.Type,
				AuthID:    c.AuthID,
				NotBefore: secret.NotBefore,
				NotAfter:  secret.NotAfter,
				Algorithm: secret.Algorithm,
				Key:       secret.Key,
			}
			l.Values = append([]AuthenticationValue{v}, l.Values...)
		}
	}
}

// Reload fetches the credentials. An empty or failed result keeps the
// table as it is.
func (l *CredentialsList) Reload(ctx context.Context) {
	creds, err := l.s.Credentials.List(ctx, l.DeviceID, l.TenantID)
	if err != nil {
		logctx.CtxGetLog(ctx).Error("unable to list credentials", "device", l.DeviceID, "error", err)
		return
	}
	if len(creds) > 0 {
		l.setCredentials(creds)
	}
}

// IsEditable reports whether the secret can be edited. Only rpk secrets
// can.
func (l *CredentialsList) IsEditable(v AuthenticationValue) bool {
	return v.Type == api.CredentialsRpk
}

// Edit opens the form for the credential of v, or returns nil when it is
// not editable.
func (l *CredentialsList) Edit(v AuthenticationValue) *CredentialsForm {
	if !l.IsEditable(v) {
		return nil
	}
	return NewEditCredentialsForm(l.s, l.TenantID, l.DeviceID, l.Credentials, v.AuthID)
}

// Edited reloads the table after an edit form was closed; saved tells
// whether it confirmed.
func (l *CredentialsList) Edited(ctx context.Context, saved bool) {
	if saved {
		l.s.Notify.Success("Successfully edited credentials of device " + l.DeviceID)
	}
	l.Reload(ctx)
}

// Delete removes the credential of v and saves the remaining set. It is a
// no-op when no credential has the auth ID of v.
func (l *CredentialsList) Delete(ctx context.Context, v AuthenticationValue) error {
	idx := slices.IndexFunc(l.Credentials, func(c api.Credentials) bool { return c.AuthID == v.AuthID })
	if idx < 0 {
		return nil
	}
	remaining := slices.Delete(slices.Clone(l.Credentials), idx, idx+1)
	if err := l.s.Credentials.Save(ctx, l.DeviceID, l.TenantID, remaining); err != nil {
		logctx.CtxGetLog(ctx).Error("unable to save credentials", "device", l.DeviceID, "error", err)
		l.s.Notify.Error("Could not delete credentials for device " + l.DeviceID)
		return err
	}
	l.Credentials = remaining
	if i := slices.Index(l.Values, v); i >= 0 {
		l.Values = slices.Delete(l.Values, i, i+1)
		l.s.Notify.Success("Successfully deleted credentials for device " + l.DeviceID)
	}
	return nil
}

// Find returns the first value with the auth ID.
func (l *CredentialsList) Find(authID string) (AuthenticationValue, bool) {
	return lo.Find(l.Values, func(v AuthenticationValue) bool { return v.AuthID == authID })
}
