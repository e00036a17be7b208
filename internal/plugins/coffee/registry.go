package coffee

import "menubar/internal/cli"

// Program is the plugin's name in usage text.
const Program = "coffee-tracker"

// Registry holds the coffee-tracker commands.
var Registry = cli.NewRegistry[*Env]()

func init() {
	Registry.MustRegister(
		&MenuCmd{},
		&UseBagCmd{},
		&DeactivateBagCmd{},
		&NewBagCmd{},
		&ProfileCmd{},
	)
	cli.RegisterBuiltins(Registry, Program)
}
