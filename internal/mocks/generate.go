package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name SnapshotProvider --dir ../usecase --output usecase --outpkg usecasemock --filename snapshot_provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name EventNotifier --dir ../usecase --output usecase --outpkg usecasemock --filename event_notifier_mock.go
