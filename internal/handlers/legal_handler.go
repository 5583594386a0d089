package handlers

import "github.com/gofiber/fiber/v2"

const legalStyle = `<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>`

type LegalHandler struct {
	supportEmail string
}

func NewLegalHandler(supportEmail string) *LegalHandler {
	if supportEmail == "" {
		supportEmail = "support@waver.app"
	}
	return &LegalHandler{supportEmail: supportEmail}
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - Waver</title>
` + legalStyle + `
</head><body>
<h1>Privacy Policy</h1>
<p>Last updated: October 2026</p>
<h2>Information We Collect</h2>
<p>We collect your email address, username, and the surf reports you post, including the spot, rating, wave height, crowd level and optional comment.</p>
<h2>Who Sees Your Reports</h2>
<p>Each report is public, visible to friends, or private, as you choose when posting. Users you block never see your reports and you never see theirs.</p>
<h2>Data Storage</h2>
<p>Your data is stored on encrypted servers. We do not sell your personal information to third parties.</p>
<h2>Account Deletion</h2>
<p>You can delete your account from the app settings. Your reports, favorites, and friendships are removed with it.</p>
<h2>Contact</h2>
<p>For questions about this policy, contact us at ` + h.supportEmail + `</p>
</body></html>`)
}

func (h *LegalHandler) TermsOfService(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Terms of Service - Waver</title>
` + legalStyle + `
</head><body>
<h1>Terms of Service</h1>
<p>Last updated: October 2026</p>
<h2>Acceptance</h2>
<p>By using Waver, you agree to these terms.</p>
<h2>Reports</h2>
<p>Post honest reports of conditions you have seen yourself. Reports are limited to one every thirty minutes per account.</p>
<h2>User Conduct</h2>
<p>You agree not to post offensive, illegal, or harmful content. Flagged content is reviewed and may be removed.</p>
<h2>Termination</h2>
<p>We may suspend or terminate accounts that violate these terms.</p>
<h2>Contact</h2>
<p>For questions, contact us at ` + h.supportEmail + `</p>
</body></html>`)
}
