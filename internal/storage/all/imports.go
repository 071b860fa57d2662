// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories with the storage package. Importing it makes the following
// storage kinds available:
//
//   - "postgres" (csvdataset/internal/storage/postgres)
//   - "mssql"    (csvdataset/internal/storage/mssql)
//   - "mysql"    (csvdataset/internal/storage/mysql)
//   - "sqlite"   (csvdataset/internal/storage/sqlite)
//
// A binary that needs only a subset can import the backends it wants
// directly instead.
package all

import (
	_ "csvdataset/internal/storage/mssql"
	_ "csvdataset/internal/storage/mysql"
	_ "csvdataset/internal/storage/postgres"
	_ "csvdataset/internal/storage/sqlite"
)
