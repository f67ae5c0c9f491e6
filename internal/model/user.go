package model

import "time"

type User struct {
	Base         `bson:",inline"`
	Email        string     `bson:"email" gorm:"column:email;uniqueIndex;not null"`
	Username     string     `bson:"username" gorm:"column:username;size:50;uniqueIndex;not null"`
	Name         string     `bson:"name" gorm:"column:name;not null"`
	Phone        string     `bson:"phone" gorm:"column:phone"`
	Admin        bool       `bson:"admin" gorm:"column:admin;not null;default:false"`
	Confirmed    bool       `bson:"confirmed" gorm:"column:confirmed;not null;default:false"`
	PasswordHash string     `json:"-" bson:"password_hash" gorm:"column:password_hash;not null"`
	LastSeen     *time.Time `bson:"last_seen" gorm:"column:last_seen"`
}

func (User) TableName() string { return "users" }
