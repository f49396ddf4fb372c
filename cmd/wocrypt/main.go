package main

import (
	"log"
	"os"

	"github.com/ruteri/tee-workorder-service/cmd/flags"
	"github.com/ruteri/tee-workorder-service/common"
	"github.com/ruteri/tee-workorder-service/interfaces"
	"github.com/urfave/cli/v2"
)

var keysFileFlag = &cli.StringFlag{
	Name:  "keys-file",
	Value: "data-keys.json",
	Usage: "JSON file mapping data item Type to base64 AES key; created on encrypt if missing",
}
var inputFlag = &cli.StringFlag{
	Name:     "input",
	Aliases:  []string{"i"},
	Required: true,
	Usage:    "input JSON file",
}
var outputFlag = &cli.StringFlag{
	Name:    "output",
	Aliases: []string{"o"},
	Usage:   "output JSON file, stdout if empty",
}
var memberFlagFn = func(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "member",
		Value: value,
		Usage: "name of the JSON object holding the Data array",
	}
}
var enclavePubkeyFlag = &cli.StringFlag{
	Name:  "enclave-pubkey-file",
	Usage: "enclave encryption public key PEM; fetched from --server-addr if empty",
}
var verifyFlag = &cli.BoolFlag{
	Name:  "verify",
	Usage: "verify the enclave attestation",
}
var participantKeyFlag = &cli.StringFlag{
	Name:     "participant-key",
	EnvVars:  []string{"PARTICIPANT_KEY"},
	Required: true,
	Usage:    "hex-encoded secp256k1 participant private key",
}
var storageFlag = &cli.StringSliceFlag{
	Name:     "storage",
	Required: true,
	Usage:    "storage URI the enclave server archives to, repeatable",
}
var contentIDFlag = &cli.StringFlag{
	Name:     "id",
	Required: true,
	Usage:    "hex content ID of the archived content",
}
var contentTypeFlag = &cli.StringFlag{
	Name:  "type",
	Value: interfaces.ResponseType.String(),
	Usage: "archived content type, response or output",
}
var adminPrivkeyFlag = &cli.StringFlag{
	Name:  "admin-privkey-file",
	Value: "admin-private.pem",
	Usage: "admin private key PEM",
}
var adminPubkeyFlag = &cli.StringFlag{
	Name:  "admin-pubkey-file",
	Value: "admin-public.pem",
	Usage: "admin public key PEM",
}
var adminsFileFlag = &cli.StringFlag{
	Name:     "admins-file",
	Required: true,
	Usage:    `admin keys JSON ({"admins":[{"id":..,"pubkey":..}]})`,
}
var shareFileFlag = &cli.StringFlag{
	Name:     "share-file",
	Required: true,
	Usage:    "hex-encoded seed share",
}

func main() {
	app := &cli.App{
		Name:    "wocrypt",
		Usage:   "Participant and admin tooling for the enclave server",
		Version: common.Version,
		Flags: []cli.Flag{
			flags.LogDebugFlag,
			flags.LogJsonFlag,
			flags.LogServiceFlagFn("wocrypt"),
		},
		Commands: []*cli.Command{
			{
				Name:   "encrypt",
				Usage:  "encrypt the Data items of a work-order request for the enclave",
				Flags:  []cli.Flag{flags.ServerAddrFlag, enclavePubkeyFlag, verifyFlag, keysFileFlag, inputFlag, outputFlag, memberFlagFn("params")},
				Action: encryptCmd,
			},
			{
				Name:   "decrypt",
				Usage:  "decrypt the Data items of a work-order response",
				Flags:  []cli.Flag{keysFileFlag, inputFlag, outputFlag, memberFlagFn("result")},
				Action: decryptCmd,
			},
			{
				Name:   "sign",
				Usage:  "set ParticipantAddress and ParticipantSignature on a request",
				Flags:  []cli.Flag{participantKeyFlag, inputFlag, outputFlag},
				Action: signCmd,
			},
			{
				Name:   "submit",
				Usage:  "submit a work-order request and print the response",
				Flags:  []cli.Flag{flags.ServerAddrFlag, inputFlag, outputFlag},
				Action: submitCmd,
			},
			{
				Name:   "fetch",
				Usage:  "read an archived response or output back from storage",
				Flags:  []cli.Flag{storageFlag, contentIDFlag, contentTypeFlag, outputFlag},
				Action: fetchCmd,
			},
			{
				Name:   "info",
				Usage:  "show the enclave keys and attestation",
				Flags:  []cli.Flag{flags.ServerAddrFlag, verifyFlag, outputFlag},
				Action: infoCmd,
			},
			{
				Name:   "admin-keygen",
				Usage:  "generate an admin key pair",
				Flags:  []cli.Flag{adminPrivkeyFlag, adminPubkeyFlag},
				Action: adminKeygenCmd,
			},
			{
				Name:  "split-seed",
				Usage: "split an enclave seed into one share per admin",
				Flags: []cli.Flag{
					adminsFileFlag,
					&cli.StringFlag{Name: "seed", Usage: "hex-encoded 32-byte seed, random if empty"},
					&cli.IntFlag{Name: "threshold", Value: 2, Usage: "shares needed to recover the seed"},
					&cli.StringFlag{Name: "out-dir", Value: ".", Usage: "directory for share-<admin id>.hex files"},
				},
				Action: splitSeedCmd,
			},
			{
				Name:   "submit-share",
				Usage:  "sign and submit a seed share to a server waiting for its seed",
				Flags:  []cli.Flag{flags.ServerAddrFlag, shareFileFlag, adminPrivkeyFlag, adminPubkeyFlag},
				Action: submitShareCmd,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
