// Package cli implements binderctl, the command-line client for the
// ComplianceBinder API.
//
// Commands form a small tree (see Command). Global flags come before the
// command name and are handled by the config package; each command parses
// its own flags with pflag. After login the access token is kept in the
// configured token file and sent with every later request.
//
//	binderctl register --email me@example.com
//	binderctl login --email me@example.com
//	binderctl binders create --name "Acme Ltd" --industry Finance
//	binderctl tasks add 1 --title "Renew insurance" --due 2026-09-30
//	binderctl docs upload 1 ./policy.pdf --note "signed copy"
//	binderctl report 1 -o acme.html
//	binderctl verify
package cli
