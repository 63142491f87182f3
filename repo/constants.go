package repo

// ReleaseField represents a standard field in a Debian Release file.
type ReleaseField string

const (
	RelOrigin               ReleaseField = "Origin"
	RelLabel                ReleaseField = "Label"
	RelSuite                ReleaseField = "Suite"
	RelVersion              ReleaseField = "Version"
	RelCodename             ReleaseField = "Codename"
	RelDate                 ReleaseField = "Date"
	RelValidUntil           ReleaseField = "Valid-Until"
	RelArchitectures        ReleaseField = "Architectures"
	RelComponents           ReleaseField = "Components"
	RelDescription          ReleaseField = "Description"
	RelNotAutomatic         ReleaseField = "NotAutomatic"
	RelButAutomaticUpgrades ReleaseField = "ButAutomaticUpgrades"
	RelAcquireByHash        ReleaseField = "Acquire-By-Hash"
	RelSHA256               ReleaseField = "SHA256"
)

// IndexFile names a file of a flat repository.
type IndexFile string

const (
	FilePackages   IndexFile = "Packages"
	FilePackagesGz IndexFile = "Packages.gz"
	FilePackagesXz IndexFile = "Packages.xz"
	FileRelease    IndexFile = "Release"
	FileInRelease  IndexFile = "InRelease"
	FilePublicAsc  IndexFile = "public.asc"
	FilePublicGpg  IndexFile = "public.gpg"
)
