// Package catalog implements the material catalog: users that own
// materials, polymorphic authors (people and institutions), the
// draft/published/archived lifecycle, ownership-based authorization and
// criterion search. Persistence lives behind the Repository interface
// with in-memory and PostgreSQL implementations under repo/.
package catalog
