package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	Password     string             `bson:"password" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	ProfileImage string             `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Verified     bool               `bson:"verified" json:"verified"`

	OTP                  string     `bson:"otp,omitempty" json:"-"`
	OTPExpiration        *time.Time `bson:"otpExpiration,omitempty" json:"-"`
	ResetPasswordToken   string     `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpires *time.Time `bson:"resetPasswordExpires,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Author is the projection embedded wherever a user is referenced in a read model.
type Author struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Username     string             `bson:"username" json:"username"`
	ProfileImage string             `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Email        string             `bson:"email" json:"email"`
}

type SignupInput struct {
	Username     string `json:"username" form:"username" binding:"required,min=3,max=40"`
	Email        string `json:"email" form:"email" binding:"required,email"`
	Password     string `json:"password" form:"password" binding:"required,min=6"`
	ProfileImage string `json:"-" form:"-"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileInput struct {
	Username string `json:"username" form:"username" binding:"omitempty,min=3,max=40"`
	Email    string `json:"email" form:"email" binding:"omitempty,email"`
}
