package models

import "github.com/poinmhs/backend/internal/domain/activity"

// ActivityTypeModel is the persistence model for a master poin entry
type ActivityTypeModel struct {
	BaseModel
	KodeKeg       string `gorm:"column:kode_keg;type:varchar(20);not null;uniqueIndex"`
	JenisKegiatan string `gorm:"column:jenis_kegiatan;type:varchar(150);not null"`
	Posisi        string `gorm:"column:posisi;type:varchar(150)"`
	BobotPoin     int    `gorm:"column:bobot_poin;not null;default:0"`
}

// TableName returns the table name for GORM
func (ActivityTypeModel) TableName() string {
	return "master_poin"
}

// ToDomain converts the persistence model to a domain ActivityType
func (m *ActivityTypeModel) ToDomain() *activity.ActivityType {
	return &activity.ActivityType{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.KodeKeg,
		Category:          m.JenisKegiatan,
		Position:          m.Posisi,
		Weight:            m.BobotPoin,
	}
}

// FromDomain populates the persistence model from a domain ActivityType
func (m *ActivityTypeModel) FromDomain(a *activity.ActivityType) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.KodeKeg = a.Code
	m.JenisKegiatan = a.Category
	m.Posisi = a.Position
	m.BobotPoin = a.Weight
}

// ActivityTypeModelFromDomain creates a new persistence model from a domain ActivityType
func ActivityTypeModelFromDomain(a *activity.ActivityType) *ActivityTypeModel {
	m := &ActivityTypeModel{}
	m.FromDomain(a)
	return m
}
