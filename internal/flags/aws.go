package flags

import (
	"github.com/spf13/pflag"
)

// AWS holds the credential options parsed from the command line. When all
// are empty the SDK's default credential chain applies.
type AWS struct {
	Profile            string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSSessionToken    string
}

func NewAWS() *AWS {
	return &AWS{}
}

func (f *AWS) NewFlagSet() *pflag.FlagSet {
	flagSet := &pflag.FlagSet{}

	flagSet.StringVar(&f.Profile, "profile",
		"",
		"The AWS profile to load credentials from.")
	flagSet.StringVar(&f.AWSAccessKeyID, "aws-access-key-id",
		"",
		"An AWS access key ID, for static credentials.")
	flagSet.StringVar(&f.AWSSecretAccessKey, "aws-secret-access-key",
		"",
		"An AWS secret access key, for static credentials.")
	flagSet.StringVar(&f.AWSSessionToken, "aws-session-token",
		"",
		"An AWS session token, for static credentials.")

	return flagSet
}
