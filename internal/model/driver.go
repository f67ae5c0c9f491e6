package model

import "time"

type Driver struct {
	Base         `bson:",inline"`
	DriverID     string     `bson:"driver_id" gorm:"column:driver_id;size:16;uniqueIndex;not null"`
	FirstName    string     `bson:"first_name" gorm:"column:first_name;not null"`
	LastName     string     `bson:"last_name" gorm:"column:last_name"`
	Address      string     `bson:"address" gorm:"column:address"`
	City         string     `bson:"city" gorm:"column:city;index"`
	State        string     `bson:"state" gorm:"column:state"`
	Zip          string     `bson:"zip" gorm:"column:zip"`
	Gender       string     `bson:"gender" gorm:"column:gender"`
	Location     string     `bson:"location" gorm:"column:location"`
	BirthDay     *time.Time `bson:"birth_day" gorm:"column:birth_day"`
	VehicleID    *string    `bson:"vehicle_id" gorm:"column:vehicle_id;type:uuid;index"`
	DrivingYears int        `bson:"driving_years" gorm:"column:driving_years;not null;default:0"`
	Profession   string     `bson:"profession" gorm:"column:profession"`
	MileageTotal string     `bson:"mileage_total" gorm:"column:mileage_total"`
}

func (Driver) TableName() string { return "drivers" }
