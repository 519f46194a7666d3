// Command advise prints the opening and discard advice for a Scala 40 hand.
//
//	advise -phase late -played 5H,7C AH AD AC AS 2C 4D 6S 8H 10C QD 3S 9D KH
//	advise -random
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"scala40-advisor/internal/config"
	"scala40-advisor/internal/scala40"
)

var (
	phaseFlag  = flag.String("phase", "", "game phase: early, mid or late (default from DEFAULT_PHASE)")
	playedFlag = flag.String("played", "", "comma separated cards already played, e.g. 5H,7C,JOKER")
	randomFlag = flag.Bool("random", false, "deal a random hand instead of reading one")
	debugFlag  = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *debugFlag {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	hand, err := readHand(flag.Args(), *randomFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	played, err := scala40.ParseCards(splitCards(*playedFlag))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	phase := cfg.DefaultPhase
	if *phaseFlag != "" {
		phase = scala40.ParsePhase(*phaseFlag)
	}

	log.Debug().Strs("hand", scala40.CardStrings(hand)).Str("phase", string(phase)).Msg("advising")

	advice, err := scala40.Advise(scala40.Request{
		Hand:    hand,
		Phase:   phase,
		Played:  played,
		Opening: cfg.OpeningOptions(),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Hand: %s\n\n", strings.Join(scala40.CardStrings(hand), " "))
	fmt.Println(advice.Format())
}

func readHand(args []string, random bool) ([]scala40.Card, error) {
	if random {
		deck := scala40.NewDeck()
		deck.Shuffle()
		return deck.Draw(scala40.HandSize), nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("no cards given")
	}
	// Accept both "AH AD ..." and "AH,AD,..."
	return scala40.ParseCards(splitCards(strings.Join(args, ",")))
}

func splitCards(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
