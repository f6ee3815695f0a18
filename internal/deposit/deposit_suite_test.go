package deposit_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestDeposit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Deposit Suite")
}
