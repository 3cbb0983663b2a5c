package domain_test

import (
	"testing"

	"annotcore/testutil"
)

// The domain package is the shared vocabulary; it must stay free of engine
// and third-party imports so every layer can depend on it.
func TestDomainImportsStayClean(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"domain must not depend on engine internals")
	testutil.AssertNoDirectImports(t, ".", testutil.ThirdPartyImportForbidden,
		"domain must not depend on third-party modules")
}
