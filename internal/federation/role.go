package federation

import (
	"github.com/mmr-tortoise/fedpatch/internal/model"
	"github.com/mmr-tortoise/fedpatch/internal/scan"
)

// ClassifyRole derives the role of a configuration file from which block
// it contains: remote if an exposes block is found, otherwise host if a
// remotes block is found, otherwise RoleUnknown.
func ClassifyRole(text string) model.Role {
	if _, ok := scan.FindNamedBlock(text, KeyExposes); ok {
		return model.RoleRemote
	}
	if _, ok := scan.FindNamedBlock(text, KeyRemotes); ok {
		return model.RoleHost
	}
	return model.RoleUnknown
}
