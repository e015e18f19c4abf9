// Package audio plays arrival sounds for toasts. Sounds are chosen per
// category from the config, decoded once with beep, and cached until the
// file on disk changes.
package audio
