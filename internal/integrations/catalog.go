package integrations

// defaultCatalog is the built-in set of channels. Gmail ships enabled since
// it is the only channel with a native poller; the rest receive messages
// through the gateway's per-channel endpoints.
func defaultCatalog() []Integration {
	return []Integration{
		{
			ID:          "gmail",
			Name:        "gmail",
			DisplayName: "Gmail",
			Description: "Connect your Gmail account to automatically extract action items from emails",
			Logo:        "/logos/gmail.svg",
			Enabled:     true,
			Status:      "connected",
			Category:    "Email",
		},
		{
			ID:          "slack",
			Name:        "slack",
			DisplayName: "Slack",
			Description: "Integrate with Slack to turn team messages into actionable tasks",
			Logo:        "/logos/slack.svg",
			Status:      "disconnected",
			Category:    "Team Chat",
		},
		{
			ID:          "whatsapp",
			Name:        "whatsapp",
			DisplayName: "WhatsApp",
			Description: "Connect WhatsApp to create todos from important messages",
			Logo:        "/logos/whatsapp.svg",
			Status:      "disconnected",
			Category:    "Messaging",
		},
		{
			ID:          "outlook",
			Name:        "outlook",
			DisplayName: "Outlook",
			Description: "Sync your Outlook emails and automatically create action items",
			Logo:        "/logos/outlook.svg",
			Status:      "disconnected",
			Category:    "Email",
		},
		{
			ID:          "telegram",
			Name:        "telegram",
			DisplayName: "Telegram",
			Description: "Monitor Telegram messages and convert them into todos",
			Logo:        "/logos/telegram.svg",
			Status:      "disconnected",
			Category:    "Messaging",
		},
		{
			ID:          "discord",
			Name:        "discord",
			DisplayName: "Discord",
			Description: "Connect Discord servers to track community tasks and discussions",
			Logo:        "/logos/discord.svg",
			Status:      "disconnected",
			Category:    "Community",
		},
		{
			ID:          "teams",
			Name:        "teams",
			DisplayName: "Microsoft Teams",
			Description: "Integrate Microsoft Teams for seamless collaboration and task management",
			Logo:        "/logos/teams.svg",
			Status:      "disconnected",
			Category:    "Collaboration",
		},
		{
			ID:          "linkedin",
			Name:        "linkedin",
			DisplayName: "LinkedIn",
			Description: "Track professional messages and networking opportunities",
			Logo:        "/logos/linkedin.svg",
			Status:      "disconnected",
			Category:    "Professional",
		},
	}
}
