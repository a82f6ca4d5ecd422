package models

// RoleBinding maps one emoji glyph to a guild role display name
type RoleBinding struct {
	Emoji    string `koanf:"emoji"`
	RoleName string `koanf:"role"`
}
