package constant

// AsciiArtLogo is the banner rendered on the CLI help screen.
const AsciiArtLogo = `
							 _
  ___ __ _ ___| |_ ___  _ __
 / __/ _` + "`" + ` / __| __/ _ \| '__|
| (_| (_| \__ \ || (_) | |
 \___\__,_|___/\__\___/|_|
`
