package repository

import (
	bookingRepo "bookwell/database/repository/booking"
	catalogRepo "bookwell/database/repository/catalog"
	providerRepo "bookwell/database/repository/provider"
	recordsRepo "bookwell/database/repository/records"
	userRepo "bookwell/database/repository/user"
)

// Re-export the BookingRepository interface and constructor.
type BookingRepository = bookingRepo.BookingRepository

type BookingFilter = bookingRepo.BookingFilter

var NewMongoBookingRepo = bookingRepo.NewMongoBookingRepo

// Re-export the ProviderRepository interface and constructor.
type ProviderRepository = providerRepo.ProviderRepository

var NewMongoProviderRepo = providerRepo.NewMongoProviderRepo

// Re-export the CatalogRepository interface and constructor.
type CatalogRepository = catalogRepo.CatalogRepository

var NewMongoCatalogRepo = catalogRepo.NewMongoCatalogRepo

// Re-export the UserRepository interface and constructor.
type UserRepository = userRepo.UserRepository

var NewMongoUserRepository = userRepo.NewMongoUserRepo

// Re-export the notification record repository.
type NotificationRecordRepository = recordsRepo.NotificationRecordRepository

var NewMongoRecordRepo = recordsRepo.NewMongoRecordRepo
