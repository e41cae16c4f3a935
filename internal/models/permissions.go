package models

import (
	"time"

	"github.com/gocql/gocql"
)

// AuditLog trace les actions administratives sur les commandes.
type AuditLog struct {
	ID         gocql.UUID `json:"id"`
	UserID     string     `json:"user_id"`
	UserEmail  string     `json:"user_email"`
	Action     string     `json:"action"`
	Resource   string     `json:"resource"`
	ResourceID string     `json:"resource_id,omitempty"`
	OldValue   string     `json:"old_value,omitempty"`
	NewValue   string     `json:"new_value,omitempty"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	Success    bool       `json:"success"`
	ErrorMsg   string     `json:"error_msg,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	SessionID  string     `json:"session_id,omitempty"`
}

// Permission requise pour les routes admin des commandes
var (
	PERM_ORDERS_VIEW = "orders.view"
	PERM_ORDERS_EDIT = "orders.edit"
)

// Actions d'audit
const (
	ACTION_ORDER_CREATE          = "order.create"
	ACTION_ORDER_STATUS_UPDATE   = "order.status_update"
	ACTION_ORDER_STATUS_OVERRIDE = "order.status_override"
	RESOURCE_ORDER               = "order"
)
