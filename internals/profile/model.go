package profile

import "github.com/portfoligo/api-server/internals/leagues"

type Profile struct {
	UserID     int    `json:"user_id"`
	UserName   string `json:"user_name"`
	MailID     string `json:"mail_id"`
	ProfilePic string `json:"profile_pic"`
}

type CompleteProfile struct {
	Profile Profile              `json:"profile"`
	Leagues []leagues.LeagueView `json:"leagues"`
}
