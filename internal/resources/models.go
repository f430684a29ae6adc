package resources

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONMap is opaque resource metadata stored as jsonb.
type JSONMap map[string]interface{}

// Value implements driver.Valuer for database storage.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner for database retrieval.
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, j)
}

// GormDataType tells GORM how to handle this type.
func (JSONMap) GormDataType() string {
	return "jsonb"
}

// Resource is a bookable thing owned by a tenant. Deactivation is soft;
// a hard delete is only allowed once no bookings reference it.
type Resource struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  string         `json:"tenant_id" gorm:"type:varchar(64);not null;index"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	Type      string         `json:"type" gorm:"type:varchar(64);not null;index"`
	Capacity  *int           `json:"capacity,omitempty"`
	Timezone  string         `json:"timezone" gorm:"type:varchar(64);not null;default:'UTC'"`
	Active    bool           `json:"active" gorm:"not null;default:true"`
	Metadata  JSONMap        `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Windows    []AvailabilityWindow    `json:"windows,omitempty" gorm:"foreignKey:ResourceID;constraint:OnDelete:CASCADE;"`
	Exceptions []AvailabilityException `json:"exceptions,omitempty" gorm:"foreignKey:ResourceID;constraint:OnDelete:CASCADE;"`
}

// TableName sets the table name for Resource.
func (Resource) TableName() string {
	return "resources"
}

// Location resolves the resource's timezone, falling back to UTC when
// the stored name no longer resolves.
func (r *Resource) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AvailabilityWindow is a recurring weekly open period: ISO weekday
// (1 = Monday … 7 = Sunday) with local wall-clock times. Windows are
// immutable once created; replacement is delete-and-recreate.
type AvailabilityWindow struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ResourceID uuid.UUID `json:"resource_id" gorm:"type:uuid;not null;index"`
	Weekday    int       `json:"weekday" gorm:"not null"`
	StartTime  string    `json:"start_time" gorm:"type:varchar(5);not null"`
	EndTime    string    `json:"end_time" gorm:"type:varchar(5);not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for AvailabilityWindow.
func (AvailabilityWindow) TableName() string {
	return "availability_windows"
}

// AvailabilityException removes availability over an absolute range,
// regardless of any window it intersects.
type AvailabilityException struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ResourceID uuid.UUID `json:"resource_id" gorm:"type:uuid;not null;index"`
	StartTime  time.Time `json:"start_time" gorm:"not null;index"`
	EndTime    time.Time `json:"end_time" gorm:"not null"`
	Reason     string    `json:"reason" gorm:"type:varchar(255)"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for AvailabilityException.
func (AvailabilityException) TableName() string {
	return "availability_exceptions"
}
