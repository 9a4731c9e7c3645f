package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultProfilePicture is assigned to every new account until an avatar is uploaded.
const DefaultProfilePicture = "/uploads/default.png"

// User represents a registered account. Friends and Posts hold ids only.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	FirstName      string               `bson:"first_name" json:"fName"`
	LastName       string               `bson:"last_name" json:"lName"`
	Email          string               `bson:"email" json:"email"`
	HashedPassword string               `bson:"hashed_password" json:"-"`
	Bio            string               `bson:"bio" json:"bio"`
	ProfilePicture string               `bson:"profile_picture" json:"profilePicture"`
	Friends        []primitive.ObjectID `bson:"friends" json:"friends"`
	Posts          []primitive.ObjectID `bson:"posts" json:"posts"`
	CreatedAt      time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updatedAt"`
}

// HasFriend reports whether id is in the user's friend set.
func (u *User) HasFriend(id primitive.ObjectID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// PublicUser is what other users may see: search results, friend lists, request senders.
type PublicUser struct {
	ID             primitive.ObjectID `json:"_id"`
	FirstName      string             `json:"fName"`
	LastName       string             `json:"lName"`
	Email          string             `json:"email,omitempty"`
	ProfilePicture string             `json:"profilePicture"`
}

// PublicProfile is the limited view returned by GET /users/{id}.
type PublicProfile struct {
	ID             primitive.ObjectID   `json:"_id"`
	FirstName      string               `json:"fName"`
	LastName       string               `json:"lName"`
	ProfilePicture string               `json:"profilePicture"`
	Posts          []primitive.ObjectID `json:"posts"`
}

// ProfileUpdate is a partial profile edit; nil fields are left untouched.
type ProfileUpdate struct {
	Bio            *string
	ProfilePicture *string
}

func (u *User) Public(withEmail bool) PublicUser {
	p := PublicUser{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: u.ProfilePicture,
	}
	if withEmail {
		p.Email = u.Email
	}
	return p
}

func (u *User) Profile() PublicProfile {
	posts := u.Posts
	if posts == nil {
		posts = []primitive.ObjectID{}
	}
	return PublicProfile{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: u.ProfilePicture,
		Posts:          posts,
	}
}
