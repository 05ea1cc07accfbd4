// Package build holds the resolved description of a multi-target build.
//
// A [Config] carries the project root, the toolchain installer command, the
// global environment and an ordered list of [Target] descriptors. Each target
// names a platform triple, the executable that drives the toolchain for it, its
// own environment overrides and the argument vector used for every [Action].
//
// Values in this package are built once per invocation and are read-only
// afterwards. Failures reported by the toolchain manager, the execution engine
// and the clean action are all [*Error] values whose [Kind] can be matched with
// errors.Is against the sentinels in errors.go.
//
// Example usage:
//
//	cfg, err := build.NewConfig(build.Config{
//	    ProjectRoot:      "/src/mycrate",
//	    InstallerCommand: "rustup",
//	    AutoInstall:      true,
//	    Targets: []build.Target{
//	        {Triple: "x86_64-unknown-linux-gnu", Command: "cargo", Kind: build.KindToolchain},
//	        {Triple: "aarch64-unknown-linux-gnu", Command: "cross", Kind: build.KindWrapper},
//	    },
//	})
//	if err != nil {
//	    return err
//	}
package build
