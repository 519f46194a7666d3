package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scala40-advisor/internal/scala40"
)

func TestSplitCards(t *testing.T) {
	assert.Equal(t, []string{"5H", "7C", "JOKER"}, splitCards(" 5H, 7C,,JOKER "))
	assert.Empty(t, splitCards(""))
}

func TestReadHand(t *testing.T) {
	assert := assert.New(t)

	hand, err := readHand([]string{"AH", "10D,KS"}, false)
	assert.NoError(err)
	assert.Equal([]string{"A♥", "10♦", "K♠"}, scala40.CardStrings(hand))

	hand, err = readHand(nil, true)
	assert.NoError(err)
	assert.Len(hand, scala40.HandSize)

	_, err = readHand(nil, false)
	assert.Error(err)

	_, err = readHand([]string{"XX"}, false)
	assert.ErrorIs(err, scala40.ErrInvalidCard)
}
