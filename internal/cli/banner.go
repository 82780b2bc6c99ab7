package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var bannerFont = []string{
	"             ('-. .-.               .-')    .-') _     (`\\ .-') /`          _ (`-.    ('-.",
	"            ( OO )  /              ( OO ). (  OO) )     `.( OO ),'         ( (OO  ) _(  OO)",
	"  ,----.    ,--. ,--. .-'),-----. (_)---\\_)/     '._ ,--./  .--.  ,-.-')  _.`     \\(,------.",
	" '  .-./-') |  | |  |( OO'  .-.  '/    _ | |'--...__)|      |  |  |  |OO)(__...--'' |  .---'",
	" |  |_( O- )|   .|  |/   |  | |  \\  :` `. '--.  .--'|  |   |  |, |  |  \\ |  /  | | |  |",
	" |  | .--, \\|       |\\_ ) |  |\\|  | '..`''.)   |  |   |  |.'.|  |_)|  |(_/ |  |_.' |(|  '--.",
	"(|  | '. (_/|  .-.  |  \\ |  | |  |.-._)   \\   |  |   |  |   |  | ,|  |_.' |  .___.' |  .--'",
	" |  '--'  | |  | |  |   `'  '-'  '\\       /   |  |   |   ,'.   |(_|  |    |  |      |  `---.",
	"  `------'  `--' `--'     `-----'  `-----'    `--'   '--'   '--'  `--'    `--'      `------'",
}

// limeGreen is #32CD32.
var limeGreen = color.RGB(50, 205, 50)

// printBanner writes the launcher banner.
func printBanner(w io.Writer) {
	for _, line := range bannerFont {
		fmt.Fprintln(w, limeGreen.Sprint(line))
	}
	fmt.Fprintln(w)
}
