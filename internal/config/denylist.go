package config

// SensitiveHosts returns hosts that are kept out of history when
// history.exclude_sensitive is set: banking, password managers, identity
// providers and patient portals. Subdomains match too.
func SensitiveHosts() []string {
	return []string{
		// Banking & payments
		"chase.com",
		"bankofamerica.com",
		"wellsfargo.com",
		"capitalone.com",
		"schwab.com",
		"fidelity.com",
		"vanguard.com",
		"paypal.com",
		"venmo.com",

		// Password managers
		"1password.com",
		"lastpass.com",
		"bitwarden.com",
		"dashlane.com",

		// Identity providers
		"accounts.google.com",
		"login.microsoftonline.com",
		"login.live.com",
		"okta.com",
		"auth0.com",

		// Patient portals
		"mychart.com",
		"member.cigna.com",
		"member.aetna.com",
	}
}
