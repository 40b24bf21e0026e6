package banner

import (
	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

func PrintBanner() {
	myFigure := figure.NewColorFigure("PHISHGUARD", "doom", "cyan", true)
	myFigure.Print()

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	_, _ = cyan.Println("════════════════════════════════════════════════")
	_, _ = green.Println("    URL Threat Scoring | phishing & malware triage")
	_, _ = cyan.Println("════════════════════════════════════════════════")
}
