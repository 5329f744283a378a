// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package api

// Device is a registry device. A device is a gateway only by convention:
// it is referenced in the Via list of another device.
type Device struct {
	ID      string         `json:"id,omitempty"`
	Via     []string       `json:"via,omitempty"`
	Enabled *bool          `json:"enabled,omitempty"`
	Status  map[string]any `json:"status,omitempty"`

	// Checked is the transient selection flag of list views. Never sent.
	Checked bool `json:"-"`
}

// Created returns the creation timestamp reported in the device status, or
// an empty string when the registry did not report one.
func (d Device) Created() string {
	if d.Status == nil {
		return ""
	}
	if created, ok := d.Status["created"].(string); ok {
		return created
	}
	return ""
}

type DeviceList struct {
	Total  int       `json:"total"`
	Result []*Device `json:"result"`
}

type MessagingType string

const (
	MessagingPubSub MessagingType = "pubsub"
	MessagingKafka  MessagingType = "kafka"
	MessagingAmqp   MessagingType = "amqp"

	ExtMessagingType = "messaging-type"
)

var MessagingTypes = []MessagingType{MessagingPubSub, MessagingKafka, MessagingAmqp}

type Tenant struct {
	ID  string         `json:"id,omitempty"`
	Ext map[string]any `json:"ext,omitempty"`
}

// MessagingType returns the tenant's messaging type extension or "".
func (t Tenant) MessagingType() string {
	if t.Ext == nil {
		return ""
	}
	if mt, ok := t.Ext[ExtMessagingType].(string); ok {
		return mt
	}
	return ""
}

type TenantList struct {
	Total  int       `json:"total"`
	Result []*Tenant `json:"result"`
}

type CredentialType string

const (
	CredentialsHashedPassword CredentialType = "hashed-password"
	CredentialsRpk            CredentialType = "rpk"
)

type Credentials struct {
	Type    CredentialType `json:"type,omitempty"`
	AuthID  string         `json:"auth-id,omitempty"`
	Enabled *bool          `json:"enabled,omitempty"`
	Ext     map[string]any `json:"ext,omitempty"`
	Secrets []Secret       `json:"secrets"`
}

type Secret struct {
	ID           string `json:"id,omitempty"`
	Enabled      *bool  `json:"enabled,omitempty"`
	NotBefore    string `json:"not-before,omitempty"`
	NotAfter     string `json:"not-after,omitempty"`
	Comment      string `json:"comment,omitempty"`
	HashFunction string `json:"hash-function,omitempty"`
	PwdHash      string `json:"pwd-hash,omitempty"`
	Salt         string `json:"salt,omitempty"`
	PwdPlain     string `json:"pwd-plain,omitempty"`
	Algorithm    string `json:"algorithm,omitempty"`
	Key          string `json:"key,omitempty"`
	Cert         string `json:"cert,omitempty"`
}

type Config struct {
	Version         string `json:"version"`
	CloudUpdateTime string `json:"cloudUpdateTime"`
	DeviceAckTime   string `json:"deviceAckTime"`
	BinaryData      string `json:"binaryData"`
}

type ConfigRequest struct {
	VersionToUpdate string `json:"versionToUpdate,omitempty"`
	BinaryData      string `json:"binaryData"`
}

type ConfigList struct {
	DeviceConfigs []Config `json:"deviceConfigs"`
}

type State struct {
	UpdateTime string `json:"updateTime"`
	BinaryData string `json:"binaryData"`
}

type StateList struct {
	DeviceStates []State `json:"deviceStates"`
}

type Command struct {
	BinaryData       string `json:"binaryData"`
	Subfolder        string `json:"subfolder,omitempty"`
	ResponseRequired *bool  `json:"response-required,omitempty"`
	CorrelationID    *int   `json:"correlation-id,omitempty"`
}
