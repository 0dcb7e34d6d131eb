package entity

type User struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	Password string  `json:"-"` // bcrypt hash, never serialized
	Email    string  `json:"email"`
	Currency string  `json:"currency"`
	IsAdmin  bool    `json:"is_admin"`
	Sales    float64 `json:"sales"`
}

// UserSummary is the admin view of a user. It has no password field.
type UserSummary struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Sales    float64 `json:"sales"`
}

// Identity is what a verified token asserts about the caller.
type Identity struct {
	UserID  int
	IsAdmin bool
}

/*
Mysql Schema:
CREATE TABLE users (
	id INT AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(50) NOT NULL UNIQUE,
	pass VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	currency VARCHAR(8) NOT NULL,
	is_admin TINYINT(1) NOT NULL DEFAULT 0,
	sales DOUBLE NOT NULL DEFAULT 0
);
*/
