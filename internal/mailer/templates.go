package mailer

import "fmt"

func ConfirmEmail(publicURL, token string) (subject, body string) {
	return "Confirm your Waver account",
		fmt.Sprintf("Welcome to Waver!\n\nConfirm your email address by opening:\n%s/confirm?token=%s\n\nThe link expires in 24 hours.", publicURL, token)
}

func PasswordReset(publicURL, token string) (subject, body string) {
	return "Reset your Waver password",
		fmt.Sprintf("Someone asked to reset the password for your Waver account.\n\nOpen this link to choose a new one:\n%s/reset-password?token=%s\n\nThe link expires in 1 hour. If this wasn't you, ignore this email.", publicURL, token)
}
