package user

import "time"

// User is a registered principal. Id is an opaque UUID assigned at creation.
type User struct {
	Id          string
	Username    string
	DisplayName string
	Email       string
	PhotoUrl    string
	Timezone    string
	CreatedAt   time.Time
}
