package model

import (
	"time"

	"gorm.io/datatypes"
)

type Vehicle struct {
	Base              `bson:",inline"`
	CarID             string            `bson:"car_id" gorm:"column:car_id;size:16;uniqueIndex;not null"`
	LicensePlate      string            `bson:"license_plate" gorm:"column:license_plate;uniqueIndex;not null"`
	Brand             string            `bson:"brand" gorm:"column:brand"`
	OwnerCompany      string            `bson:"owner_company" gorm:"column:owner_company"`
	Project           string            `bson:"project" gorm:"column:project;index"`
	BuyTime           *time.Time        `bson:"buy_time" gorm:"column:buy_time"`
	InsuranceNumber   string            `bson:"insurance_number" gorm:"column:insurance_number"`
	ModelName         string            `bson:"model_name" gorm:"column:model_name"`
	VehicleType       string            `bson:"vehicle_type" gorm:"column:vehicle_type"`
	PowerType         string            `bson:"power_type" gorm:"column:power_type"`
	AutonomousVehicle bool              `bson:"autonomous_vehicle" gorm:"column:autonomous_vehicle;not null;default:false"`
	AccidentLog       string            `bson:"accident_log" gorm:"column:accident_log;type:text"`
	Others            datatypes.JSONMap `bson:"others" gorm:"column:others;type:jsonb"`
}

func (Vehicle) TableName() string { return "vehicles" }
