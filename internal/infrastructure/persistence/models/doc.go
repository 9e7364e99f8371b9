// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of ORM tags; each model converts to and from its
// aggregate with ToDomain and FromDomain.
//
// Tables:
//   - mahasiswa: StudentModel
//   - master_poin: ActivityTypeModel
//   - klaim_kegiatan: ClaimModel
//   - users: UserModel
package models
