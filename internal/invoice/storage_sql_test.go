package invoice

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SQLStorage", func() {
	describeStorage(func(dir string) (Storage, error) {
		return NewSQLStorage(filepath.Join(dir, "test.sqlite"))
	})

	It("keeps data across reopen", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "test.sqlite")

		db, err := NewSQLStorage(dbPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(db.Put(DefaultMirrorKey, []byte("saved"))).To(Succeed())
		Expect(db.Close()).To(Succeed())

		db, err = NewSQLStorage(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		data, err := db.Get(DefaultMirrorKey)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("saved"))
	})

	It("backs a store", func() {
		db, err := NewSQLStorage(filepath.Join(GinkgoT().TempDir(), "test.sqlite"))
		Expect(err).NotTo(HaveOccurred())

		store := NewStore(db)
		defer store.Close()
		store.Load()
		created, err := store.Create(validDraft())
		Expect(err).NotTo(HaveOccurred())

		reloaded := NewStore(db)
		reloaded.Load()
		got, ok := reloaded.Get(created.ID)
		Expect(ok).To(BeTrue())
		Expect(got.Vendor).To(Equal("Acme"))
	})
})
