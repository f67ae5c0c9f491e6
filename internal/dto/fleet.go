package dto

import (
	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
)

type VehicleRequest struct {
	CarID             string         `json:"CarId" binding:"omitempty,numeric,len=8"`
	LicensePlate      string         `json:"LicensePlate" binding:"required,max=64"`
	Brand             string         `json:"Brand" binding:"max=64"`
	OwnerCompany      string         `json:"OwnerCompany" binding:"max=128"`
	Project           string         `json:"Project" binding:"max=64"`
	BuyTime           *int64         `json:"BuyTime" binding:"omitempty,epoch"`
	InsuranceNumber   string         `json:"InsuranceNumber" binding:"max=64"`
	ModelName         string         `json:"ModelName" binding:"max=64"`
	VehicleType       string         `json:"VehicleType" binding:"max=64"`
	PowerType         string         `json:"PowerType" binding:"omitempty,oneof=electric hybrid fuel"`
	AutonomousVehicle bool           `json:"AutonomousVehicle"`
	AccidentLog       string         `json:"AccidentLog"`
	Others            map[string]any `json:"Others"`
}

type VehicleResponse struct {
	ID                string         `json:"id"`
	URL               string         `json:"url"`
	CarID             string         `json:"CarId"`
	LicensePlate      string         `json:"LicensePlate"`
	Brand             string         `json:"Brand"`
	OwnerCompany      string         `json:"OwnerCompany"`
	Project           string         `json:"Project"`
	BuyTime           *int64         `json:"BuyTime"`
	InsuranceNumber   string         `json:"InsuranceNumber"`
	ModelName         string         `json:"ModelName"`
	VehicleType       string         `json:"VehicleType"`
	PowerType         string         `json:"PowerType"`
	AutonomousVehicle bool           `json:"AutonomousVehicle"`
	AccidentLog       string         `json:"AccidentLog"`
	Others            map[string]any `json:"Others"`
	CreatedAt         int64          `json:"created_at"`
	UpdatedAt         int64          `json:"updated_at"`
}

// VehicleOption is one entry of the vehicle dropdown.
type VehicleOption struct {
	ID           string `json:"id"`
	CarID        string `json:"CarId"`
	LicensePlate string `json:"LicensePlate"`
}

// DriverOption is one entry of the driver dropdown.
type DriverOption struct {
	ID        string `json:"id"`
	DriverID  string `json:"DriverId"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
}

// Apply copies the request onto v. CarId is only replaced when given.
func (r VehicleRequest) Apply(v *model.Vehicle) {
	if r.CarID != "" {
		v.CarID = r.CarID
	}
	v.LicensePlate = r.LicensePlate
	v.Brand = r.Brand
	v.OwnerCompany = r.OwnerCompany
	v.Project = r.Project
	v.BuyTime = TimePtr(r.BuyTime)
	v.InsuranceNumber = r.InsuranceNumber
	v.ModelName = r.ModelName
	v.VehicleType = r.VehicleType
	v.PowerType = r.PowerType
	v.AutonomousVehicle = r.AutonomousVehicle
	v.AccidentLog = r.AccidentLog
	v.Others = r.Others
}

func NewVehicleResponse(v *model.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:                v.ID,
		URL:               ResourceURL(constants.RouteVehicles, v.ID),
		CarID:             v.CarID,
		LicensePlate:      v.LicensePlate,
		Brand:             v.Brand,
		OwnerCompany:      v.OwnerCompany,
		Project:           v.Project,
		BuyTime:           EpochPtr(v.BuyTime),
		InsuranceNumber:   v.InsuranceNumber,
		ModelName:         v.ModelName,
		VehicleType:       v.VehicleType,
		PowerType:         v.PowerType,
		AutonomousVehicle: v.AutonomousVehicle,
		AccidentLog:       v.AccidentLog,
		Others:            v.Others,
		CreatedAt:         v.CreatedAt.Unix(),
		UpdatedAt:         v.UpdatedAt.Unix(),
	}
}

type DriverRequest struct {
	DriverID     string `json:"DriverId" binding:"omitempty,numeric,len=8"`
	FirstName    string `json:"FirstName" binding:"required,max=64"`
	LastName     string `json:"LastName" binding:"max=64"`
	Address      string `json:"Address" binding:"max=255"`
	City         string `json:"City" binding:"max=64"`
	State        string `json:"State" binding:"max=64"`
	Zip          string `json:"Zip" binding:"max=16"`
	Gender       string `json:"Gender" binding:"omitempty,oneof=male female other"`
	Location     string `json:"Location" binding:"max=255"`
	BirthDay     *int64 `json:"BirthDay" binding:"omitempty,epoch"`
	Vehicle      string `json:"Vehicle" binding:"omitempty,uuid"`
	DrivingYears int    `json:"DrivingYears" binding:"gte=0"`
	Profession   string `json:"Profession" binding:"max=64"`
	MileageTotal string `json:"MileageTotal" binding:"max=32"`
}

type DriverResponse struct {
	ID           string  `json:"id"`
	URL          string  `json:"url"`
	DriverID     string  `json:"DriverId"`
	FirstName    string  `json:"FirstName"`
	LastName     string  `json:"LastName"`
	Address      string  `json:"Address"`
	City         string  `json:"City"`
	State        string  `json:"State"`
	Zip          string  `json:"Zip"`
	Gender       string  `json:"Gender"`
	Location     string  `json:"Location"`
	BirthDay     *int64  `json:"BirthDay"`
	Vehicle      *string `json:"Vehicle"`
	DrivingYears int     `json:"DrivingYears"`
	Profession   string  `json:"Profession"`
	MileageTotal string  `json:"MileageTotal"`
	CreatedAt    int64   `json:"created_at"`
	UpdatedAt    int64   `json:"updated_at"`
}

func (r DriverRequest) Apply(d *model.Driver) {
	if r.DriverID != "" {
		d.DriverID = r.DriverID
	}
	d.FirstName = r.FirstName
	d.LastName = r.LastName
	d.Address = r.Address
	d.City = r.City
	d.State = r.State
	d.Zip = r.Zip
	d.Gender = r.Gender
	d.Location = r.Location
	d.BirthDay = TimePtr(r.BirthDay)
	d.VehicleID = StringPtr(r.Vehicle)
	d.DrivingYears = r.DrivingYears
	d.Profession = r.Profession
	d.MileageTotal = r.MileageTotal
}

func NewDriverResponse(d *model.Driver) DriverResponse {
	return DriverResponse{
		ID:           d.ID,
		URL:          ResourceURL(constants.RouteDrivers, d.ID),
		DriverID:     d.DriverID,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Address:      d.Address,
		City:         d.City,
		State:        d.State,
		Zip:          d.Zip,
		Gender:       d.Gender,
		Location:     d.Location,
		BirthDay:     EpochPtr(d.BirthDay),
		Vehicle:      d.VehicleID,
		DrivingYears: d.DrivingYears,
		Profession:   d.Profession,
		MileageTotal: d.MileageTotal,
		CreatedAt:    d.CreatedAt.Unix(),
		UpdatedAt:    d.UpdatedAt.Unix(),
	}
}

// AssignmentRequest is the body of task and trip mutations.
type AssignmentRequest struct {
	Car        string `json:"car" binding:"omitempty,uuid"`
	Driver     string `json:"driver" binding:"omitempty,uuid"`
	StartTime  *int64 `json:"start_time" binding:"omitempty,epoch"`
	EndTime    *int64 `json:"end_time" binding:"omitempty,epoch"`
	DiskNumber string `json:"disk_number" binding:"max=64"`
}

type TaskResponse struct {
	ID         string  `json:"id"`
	URL        string  `json:"url"`
	Car        *string `json:"car"`
	Driver     *string `json:"driver"`
	StartTime  *int64  `json:"start_time"`
	EndTime    *int64  `json:"end_time"`
	DiskNumber string  `json:"disk_number"`
	IsReturn   bool    `json:"is_return"`
	CreatedAt  int64   `json:"created_at"`
	UpdatedAt  int64   `json:"updated_at"`
}

type TripResponse struct {
	ID         string  `json:"id"`
	URL        string  `json:"url"`
	Car        *string `json:"car"`
	Driver     *string `json:"driver"`
	StartTime  *int64  `json:"start_time"`
	EndTime    *int64  `json:"end_time"`
	DiskNumber string  `json:"disk_number"`
	CreatedAt  int64   `json:"created_at"`
	UpdatedAt  int64   `json:"updated_at"`
}

// ApplyTask copies the request onto t. Absent references keep their
// current value, matching partial edits of assignments.
func (r AssignmentRequest) ApplyTask(t *model.Task) {
	if r.Car != "" {
		t.CarID = StringPtr(r.Car)
	}
	if r.Driver != "" {
		t.DriverID = StringPtr(r.Driver)
	}
	if r.StartTime != nil {
		t.StartTime = TimePtr(r.StartTime)
	}
	if r.EndTime != nil {
		t.EndTime = TimePtr(r.EndTime)
	}
	t.DiskNumber = r.DiskNumber
	t.SyncReturned()
}

func (r AssignmentRequest) ApplyTrip(t *model.Trip) {
	if r.Car != "" {
		t.CarID = StringPtr(r.Car)
	}
	if r.Driver != "" {
		t.DriverID = StringPtr(r.Driver)
	}
	if r.StartTime != nil {
		t.StartTime = TimePtr(r.StartTime)
	}
	if r.EndTime != nil {
		t.EndTime = TimePtr(r.EndTime)
	}
	t.DiskNumber = r.DiskNumber
}

func NewTaskResponse(t *model.Task) TaskResponse {
	return TaskResponse{
		ID:         t.ID,
		URL:        ResourceURL(constants.RouteTasks, t.ID),
		Car:        t.CarID,
		Driver:     t.DriverID,
		StartTime:  EpochPtr(t.StartTime),
		EndTime:    EpochPtr(t.EndTime),
		DiskNumber: t.DiskNumber,
		IsReturn:   t.EndTime != nil,
		CreatedAt:  t.CreatedAt.Unix(),
		UpdatedAt:  t.UpdatedAt.Unix(),
	}
}

func NewTripResponse(t *model.Trip) TripResponse {
	return TripResponse{
		ID:         t.ID,
		URL:        ResourceURL(constants.RouteTrips, t.ID),
		Car:        t.CarID,
		Driver:     t.DriverID,
		StartTime:  EpochPtr(t.StartTime),
		EndTime:    EpochPtr(t.EndTime),
		DiskNumber: t.DiskNumber,
		CreatedAt:  t.CreatedAt.Unix(),
		UpdatedAt:  t.UpdatedAt.Unix(),
	}
}
